package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "f95-cli",
	Short: "f95-cli is a CLI for authenticating against and scraping the f95zone forum.",
}

var (
	sessionFile *string
	recordHttp  *string
)

func init() {
	sessionFile = rootCmd.PersistentFlags().String("session", "session.json", "The file the session is persisted to.")
	recordHttp = rootCmd.PersistentFlags().String("record-http", "", "Record request/response transcripts into a directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
