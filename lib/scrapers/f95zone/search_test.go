package f95zone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const searchResultsHTML = `<html><body><ol>
<li class="block-row">
  <h3 class="contentRow-title"><a href="/threads/first-game.1/">First  Game
  [v1.0]</a></h3>
  <div class="contentRow-minor">Replies: 1,234 · Forum: Games</div>
</li>
<li class="block-row">
  <h3 class="contentRow-title"><a href="/threads/second-game.2/">Second Game</a></h3>
  <div class="contentRow-minor">Forum: Games</div>
</li>
<li class="block-row"><div class="contentRow-minor">ad slot</div></li>
</ol></body></html>`

func TestThreadSearchQueryParams(t *testing.T) {
	query := ThreadSearchQuery{
		Keywords:         "ren'py",
		OnlyTitles:       true,
		NewerThan:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		IncludedTags:     []string{"3dcg", "animated"},
		ExcludedTags:     []string{"vn"},
		IncludedPrefixes: []string{"Completed", "Onhold"},
		MinimumReplies:   50,
		Order:            OrderReplies,
		Page:             3,
	}

	params := query.params("tok")
	require.Equal(t, "tok", params["_xfToken"])
	require.Equal(t, "post", params["search_type"])
	require.Equal(t, "ren'py", params["keywords"])
	require.Equal(t, "1", params["c[title_only]"])
	require.Equal(t, "2024-03-01", params["c[newer_than]"])
	require.Equal(t, "3dcg,animated", params["c[tags]"])
	require.Equal(t, "vn", params["c[excludeTags]"])
	require.Equal(t, "Completed", params["c[prefixes][0]"])
	require.Equal(t, "Onhold", params["c[prefixes][1]"])
	require.Equal(t, "50", params["c[min_reply_count]"])
	require.Equal(t, "replies", params["order"])
	require.Equal(t, "3", params["page"])

	require.NotContains(t, params, "c[older_than]")
}

func TestThreadSearchQueryParamsDefaults(t *testing.T) {
	params := ThreadSearchQuery{}.params("tok")
	require.Equal(t, "*", params["keywords"])
	require.Equal(t, "1", params["page"])
	require.NotContains(t, params, "order")
	require.NotContains(t, params, "c[title_only]")
}

func TestParseSearchResults(t *testing.T) {
	results, err := parseSearchResults(searchResultsHTML)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "First Game [v1.0]", results[0].Title)
	require.Equal(t, "/threads/first-game.1/", results[0].Href)
	require.Equal(t, 1234, results[0].Replies)

	require.Equal(t, "Second Game", results[1].Title)
	require.Equal(t, 0, results[1].Replies)
}

func TestThreadSearchQueryExecute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/search/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, testToken, r.PostForm.Get("_xfToken"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(searchResultsHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res := ThreadSearchQuery{Keywords: "game"}.Execute(context.Background(), client)
	require.True(t, res.IsSuccess())
	require.Len(t, res.Value(), 2)
}
