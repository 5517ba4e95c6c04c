package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jj-development3dx/hz-publisher/lib/scrapers/f95zone/postparse"
	"github.com/jj-development3dx/hz-publisher/lib/serviceutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var parseAll *bool

func init() {
	parseAll = parseCmd.Flags().Bool("all", false, "Parse every post on the page instead of only the first.")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <thread url>",
	Short: "Fetches a thread page and prints its post bodies as structured JSON.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := loadClient(ctx)

		res := client.FetchHTML(ctx, args[0])
		if res.IsFailure() {
			serviceutil.Fatal("failed to fetch thread page", res.Error())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Value()))
		if err != nil {
			serviceutil.Fatal("failed to parse thread page", err)
		}

		bodies := doc.Find("article.message div.bbWrapper")
		if bodies.Length() == 0 {
			serviceutil.Fatal("no posts found on the page", fmt.Errorf("url: %s", args[0]))
		}
		if !*parseAll {
			bodies = bodies.First()
		}

		var posts []*postparse.Element
		bodies.Each(func(_ int, body *goquery.Selection) {
			posts = append(posts, postparse.ParseBody(body))
		})

		serialized, err := json.MarshalIndent(posts, "", "  ")
		if err != nil {
			serviceutil.Fatal("failed to serialize posts", err)
		}
		fmt.Println(string(serialized))
	},
}
