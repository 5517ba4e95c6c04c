package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jj-development3dx/hz-publisher/lib/result"
	"github.com/jj-development3dx/hz-publisher/lib/scrapers/f95zone"
	"github.com/jj-development3dx/hz-publisher/lib/scrapers/f95zone/db"
	"github.com/jj-development3dx/hz-publisher/lib/serviceutil"
	"github.com/jj-development3dx/hz-publisher/lib/sqliteutil"

	"github.com/spf13/cobra"
)

var (
	fetchCacheDb *string
	fetchTtl     *time.Duration
	fetchOut     *string
)

func init() {
	fetchCacheDb = fetchCmd.Flags().String("cache", "", "A sqlite database to cache fetched pages in.")
	fetchTtl = fetchCmd.Flags().Duration("ttl", time.Hour, "How long cached pages stay fresh.")
	fetchOut = fetchCmd.Flags().String("out", "", "Write the page to a file instead of stdout.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetches an HTML page using the persisted session.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := loadClient(ctx)

		var res result.Result[*f95zone.Error, string]
		if *fetchCacheDb != "" {
			database, err := sqliteutil.OpenDB(db.Schema, *fetchCacheDb)
			if err != nil {
				serviceutil.Fatal("failed to open cache db", err)
			}
			defer database.Close()
			res = client.FetchHTMLCached(ctx, args[0], f95zone.NewPageCache(database), *fetchTtl)
		} else {
			res = client.FetchHTML(ctx, args[0])
		}
		if res.IsFailure() {
			serviceutil.Fatal("failed to fetch page", res.Error())
		}

		if *fetchOut != "" {
			err := os.WriteFile(*fetchOut, []byte(res.Value()), 0o644)
			if err != nil {
				serviceutil.Fatal("failed to write output file", err)
			}
			return
		}
		fmt.Println(res.Value())
	},
}
