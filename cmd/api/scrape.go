package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/app"
	"github.com/markdave123-py/EduAI/internal/config"
)

var (
	scrapeExtract bool
	scrapeClass   int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Rebuild the NCERT textbook catalog",
	Long: `Clear the stored NCERT textbooks and recreate them from the catalog.

With --extract every new textbook is downloaded, chunked and embedded
before the command returns. Use --class to extract a single class only.`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeExtract, "extract", false, "extract and embed textbook text after scraping")
	scrapeCmd.Flags().IntVar(&scrapeClass, "class", 0, "only extract textbooks of this class (1-12)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	if scrapeClass < 0 || scrapeClass > 12 {
		return fmt.Errorf("--class must be between 1 and 12")
	}
	// the scrape command never serves requests
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "unused"
	}
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("memory store selected, scraped textbooks are discarded on exit")
	}
	application, err := app.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	books, err := application.Scraper.Scrape(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d textbooks\n", len(books))
	if !scrapeExtract {
		return nil
	}

	var extracted, failed int
	for _, b := range books {
		if scrapeClass != 0 && b.Class != scrapeClass {
			continue
		}
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		if err := application.Ingestor.ProcessOne(cmd.Context(), b.ID); err != nil {
			failed++
			logger.Warn("extraction failed", zap.Int64("textbook_id", b.ID), zap.String("title", b.BookTitle), zap.Error(err))
			continue
		}
		extracted++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "extracted %d textbooks, %d failed\n", extracted, failed)
	return nil
}
