package main

import (
	"github.com/spf13/cobra"

	"github.com/markdave123-py/EduAI/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the textbook extraction workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	application, err := app.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	logger.Info("EduAI is running")
	return application.Run(cmd.Context())
}
