package postparse

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func firstNode(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		t.Fatal(err)
	}
	sel := doc.Find("body").Children().First()
	require.NotEmpty(t, sel.Nodes)
	return sel.Nodes[0]
}

const spoilerMarkup = `
<div class="bbCodeSpoiler">
	<button class="bbCodeSpoiler-button"><span class="bbCodeSpoiler-button-title">Download</span></button>
	<div class="bbCodeSpoiler-content">
		<div class="bbCodeBlock--spoiler">
			<div class="bbCodeBlock-content">a<div class="bbCodeSpoiler">
				<button class="bbCodeSpoiler-button"><span class="bbCodeSpoiler-button-title">Mirror</span></button>
				<div class="bbCodeSpoiler-content">
					<div class="bbCodeBlock--spoiler"><div class="bbCodeBlock-content">b</div></div>
				</div>
			</div></div>
		</div>
	</div>
</div>`

func TestParseSpoilerKeepsNesting(t *testing.T) {
	element := ParseTree(firstNode(t, spoilerMarkup))

	require.Equal(t, Spoiler, element.Type)
	require.Equal(t, "Download", element.Name)
	require.Len(t, element.Content, 2)

	require.Equal(t, Text, element.Content[0].Type)
	require.Equal(t, "a", element.Content[0].Text)

	nested := element.Content[1]
	require.Equal(t, Spoiler, nested.Type)
	require.Equal(t, "Mirror", nested.Name)
	require.Len(t, nested.Content, 1)
	require.Equal(t, Text, nested.Content[0].Type)
	require.Equal(t, "b", nested.Content[0].Text)
}

func TestParseTextNode(t *testing.T) {
	element := ParseNode(firstNode(t, "<b>  hello\n\t world </b>"))
	require.Equal(t, Text, element.Type)
	require.Equal(t, "hello world", element.Text)
}

func TestParseTextStripsInvisibleCharacters(t *testing.T) {
	element := ParseNode(firstNode(t, "<span>he​llo</span>"))
	require.Equal(t, Text, element.Type)
	require.Equal(t, "hello", element.Text)
}

func TestParseLinkNode(t *testing.T) {
	element := ParseNode(firstNode(t, `<a href="http://x">  y  </a>`))
	require.Equal(t, Link, element.Type)
	require.Equal(t, "http://x", element.Href)
	require.Equal(t, "y", element.Text)
}

func TestParseImageNode(t *testing.T) {
	element := ParseNode(firstNode(t, `<img alt="cover" data-src="https://cdn/x.png" src="/placeholder.png">`))
	require.Equal(t, Image, element.Type)
	require.Equal(t, "https://cdn/x.png", element.Href)
	require.Equal(t, "cover", element.Text)
}

func TestParseUnknownNodeIsEmpty(t *testing.T) {
	element := ParseNode(firstNode(t, "<table><tr><td>x</td></tr></table>"))
	require.Equal(t, Empty, element.Type)
}

func TestLinkRoundTrip(t *testing.T) {
	element := ParseNode(firstNode(t, `<a href="http://x">y</a>`))

	serialized, err := json.Marshal(element)
	require.NoError(t, err)

	var decoded Element
	require.NoError(t, json.Unmarshal(serialized, &decoded))

	if diff := cmp.Diff(*element, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, Link, decoded.Type)
	require.Equal(t, "http://x", decoded.Href)
	require.Equal(t, "y", decoded.Text)
}

func TestParseBody(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<article>intro <b>bold</b><a href="/thread">link</a></article>`,
	))
	require.NoError(t, err)

	root := ParseBody(doc.Find("article"))
	require.Equal(t, Root, root.Type)
	require.Len(t, root.Content, 3)
	require.Equal(t, Text, root.Content[0].Type)
	require.Equal(t, "intro", root.Content[0].Text)
	require.Equal(t, Text, root.Content[1].Type)
	require.Equal(t, "bold", root.Content[1].Text)
	require.Equal(t, Link, root.Content[2].Type)
	require.Equal(t, "/thread", root.Content[2].Href)
}
