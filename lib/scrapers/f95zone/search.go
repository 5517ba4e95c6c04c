package f95zone

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jj-development3dx/hz-publisher/lib/htmlutil"
	"github.com/jj-development3dx/hz-publisher/lib/result"

	"github.com/PuerkitoBio/goquery"
)

// ThreadOrder is the presentation order of search results.
type ThreadOrder string

const (
	OrderRelevance  ThreadOrder = "relevance"
	OrderDate       ThreadOrder = "date"
	OrderLastUpdate ThreadOrder = "last_update"
	OrderReplies    ThreadOrder = "replies"
)

const minSearchPage = 1

// ThreadSearchQuery describes a forum thread search. The zero value
// searches everything ordered by relevance.
type ThreadSearchQuery struct {
	Keywords string
	// search thread titles only, not post content
	OnlyTitles       bool
	NewerThan        time.Time
	OlderThan        time.Time
	IncludedTags     []string
	ExcludedTags     []string
	IncludedPrefixes []string
	MinimumReplies   int
	Order            ThreadOrder
	Page             int
}

// ThreadResult is a single row of a search response.
type ThreadResult struct {
	Title   string
	Href    string
	Replies int
}

func shortDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func (q ThreadSearchQuery) params(token string) map[string]string {
	params := map[string]string{
		"_xfToken":    token,
		"search_type": "post",
		"keywords":    "*",
	}
	if q.Keywords != "" {
		params["keywords"] = q.Keywords
	}
	if q.OnlyTitles {
		params["c[title_only]"] = "1"
	}
	if !q.NewerThan.IsZero() {
		params["c[newer_than]"] = shortDate(q.NewerThan)
	}
	if !q.OlderThan.IsZero() {
		params["c[older_than]"] = shortDate(q.OlderThan)
	}
	if len(q.IncludedTags) > 0 {
		params["c[tags]"] = strings.Join(q.IncludedTags, ",")
	}
	if len(q.ExcludedTags) > 0 {
		params["c[excludeTags]"] = strings.Join(q.ExcludedTags, ",")
	}
	for i, prefix := range q.IncludedPrefixes {
		params[fmt.Sprintf("c[prefixes][%d]", i)] = prefix
	}
	if q.MinimumReplies > 0 {
		params["c[min_reply_count]"] = strconv.Itoa(q.MinimumReplies)
	}
	if q.Order != "" {
		params["order"] = string(q.Order)
	}
	page := q.Page
	if page < minSearchPage {
		page = minSearchPage
	}
	params["page"] = strconv.Itoa(page)
	return params
}

// Execute POSTs the search to the platform using the session's token and
// scrapes the result rows.
func (q ThreadSearchQuery) Execute(ctx context.Context, c *Client) result.Result[*Error, []ThreadResult] {
	ctx, span := tracer.Start(ctx, "query:Execute")
	defer span.End()

	response := c.FetchPOST(ctx, c.searchURL(), q.params(c.Session.Token()))
	if response.IsFailure() {
		return result.Err[*Error, []ThreadResult](response.Error())
	}

	results, err := parseSearchResults(string(response.Value().Body()))
	if err != nil {
		return result.Err[*Error, []ThreadResult](wrapError(
			CodeNetworkFailure, "failed to parse search results", err,
		))
	}
	return result.Ok[*Error](results)
}

var repliesRegex = regexp.MustCompile(`Replies:\s*([\d,]+)`)

func parseSearchResults(body string) ([]ThreadResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var results []ThreadResult
	doc.Find("li.block-row").Each(func(_ int, row *goquery.Selection) {
		title := row.Find("h3.contentRow-title a").First()
		if title.Length() == 0 {
			return
		}

		replies := 0
		groups := repliesRegex.FindStringSubmatch(row.Find("div.contentRow-minor").Text())
		if len(groups) == 2 {
			replies, _ = strconv.Atoi(strings.ReplaceAll(groups[1], ",", ""))
		}

		results = append(results, ThreadResult{
			Title:   htmlutil.CollapseWhitespace(title.Text()),
			Href:    title.AttrOr("href", ""),
			Replies: replies,
		})
	})
	return results, nil
}
