package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/EduAI/internal/auth"
)

var (
	tokenSubject string
	tokenEmail   string
	tokenName    string
	tokenTTL     time.Duration
)

// tokenCmd mints a development token signed with JWT_SECRET.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed development JWT",
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := auth.NewSigner(cfg.JWTSecret, tokenTTL)
		if err != nil {
			return err
		}
		tok, err := signer.Issue(auth.Identity{Subject: tokenSubject, Email: tokenEmail, Name: tokenName})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "dev-teacher", "external identity subject")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "teacher@example.com", "email claim")
	tokenCmd.Flags().StringVar(&tokenName, "name", "Dev Teacher", "name claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
