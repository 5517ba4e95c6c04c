package commands

import (
	"os"

	"github.com/jj-development3dx/hz-publisher/lib/scrapers/f95zone"
	"github.com/jj-development3dx/hz-publisher/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchTitlesOnly *bool
	searchTags       *[]string
	searchExclude    *[]string
	searchPrefixes   *[]string
	searchMinReplies *int
	searchOrder      *string
	searchPage       *int
)

func init() {
	searchTitlesOnly = searchCmd.Flags().Bool("titles-only", false, "Match thread titles only, not post content.")
	searchTags = searchCmd.Flags().StringSlice("tag", nil, "Require a tag on matching threads.")
	searchExclude = searchCmd.Flags().StringSlice("exclude-tag", nil, "Exclude threads carrying a tag.")
	searchPrefixes = searchCmd.Flags().StringSlice("prefix", nil, "Require a thread prefix.")
	searchMinReplies = searchCmd.Flags().Int("min-replies", 0, "Minimum reply count.")
	searchOrder = searchCmd.Flags().String("order", "relevance", "Result order (relevance, date, last_update, replies).")
	searchPage = searchCmd.Flags().Int("page", 1, "Result page to fetch.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [keywords]",
	Short: "Searches forum threads and prints the matches.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := loadClient(ctx)

		query := f95zone.ThreadSearchQuery{
			OnlyTitles:       *searchTitlesOnly,
			IncludedTags:     *searchTags,
			ExcludedTags:     *searchExclude,
			IncludedPrefixes: *searchPrefixes,
			MinimumReplies:   *searchMinReplies,
			Order:            f95zone.ThreadOrder(*searchOrder),
			Page:             *searchPage,
		}
		if len(args) == 1 {
			query.Keywords = args[0]
		}

		res := query.Execute(ctx, client)
		if res.IsFailure() {
			serviceutil.Fatal("failed to search threads", res.Error())
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Title", "Replies", "Href"})
		for _, thread := range res.Value() {
			t.AppendRow(table.Row{thread.Title, thread.Replies, thread.Href})
		}
		t.Render()
	},
}
