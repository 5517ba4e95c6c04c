// Package postparse turns free-form forum post bodies into a typed
// element tree. Each source node is classified and parsed bottom-up;
// nested spoilers keep their nesting depth instead of being inlined.
package postparse

import (
	"strings"

	"github.com/jj-development3dx/hz-publisher/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type ElementType string

const (
	Root    ElementType = "Root"
	Empty   ElementType = "Empty"
	Text    ElementType = "Text"
	Link    ElementType = "Link"
	Image   ElementType = "Image"
	Spoiler ElementType = "Spoiler"
)

// Element is a node of the parsed post tree. Link and Image elements
// additionally carry Href.
type Element struct {
	Type    ElementType `json:"type"`
	Name    string      `json:"name"`
	Text    string      `json:"text"`
	Href    string      `json:"href,omitempty"`
	Content []*Element  `json:"content"`
}

// formatting tags count as text, their markup carries no structure
var formattedTags = map[string]bool{
	"b": true, "i": true, "u": true, "s": true,
	"em": true, "strong": true, "span": true, "br": true,
}

func classify(node *html.Node) ElementType {
	if node == nil {
		return Empty
	}
	if node.Type == html.TextNode {
		return Text
	}
	if node.Type != html.ElementNode {
		return Empty
	}
	switch {
	case htmlutil.HasClass(node, "bbCodeSpoiler"):
		return Spoiler
	case node.Data == "a" || node.Data == "img":
		return Link
	case formattedTags[node.Data]:
		return Text
	}
	return Empty
}

// ParseNode extracts a single node into an Element without descending
// into structural children; callers recurse via ParseTree. Text and Name
// are cleaned of invisible characters after dispatch.
func ParseNode(node *html.Node) *Element {
	var element *Element
	switch classify(node) {
	case Text:
		element = parseTextNode(node)
	case Spoiler:
		element = parseSpoilerNode(node)
	case Link:
		element = parseLinkNode(node)
	default:
		element = &Element{Type: Empty, Content: []*Element{}}
	}

	element.Text = htmlutil.StripInvisible(element.Text)
	element.Name = htmlutil.StripInvisible(element.Name)
	return element
}

func parseTextNode(node *html.Node) *Element {
	text := ""
	if node.Type == html.TextNode {
		text = node.Data
	} else {
		text = htmlutil.GetText(node)
	}
	return &Element{
		Type:    Text,
		Text:    htmlutil.CollapseWhitespace(text),
		Content: []*Element{},
	}
}

// A spoiler block is a div with class "bbCodeSpoiler" whose title sits in
// a button sub-element and whose body sits in a nested
// "bbCodeBlock-content" div.
func parseSpoilerNode(node *html.Node) *Element {
	spoiler := &Element{Type: Spoiler, Content: []*Element{}}

	title := findDescendant(node, func(n *html.Node) bool {
		return n.Type == html.ElementNode && htmlutil.HasClass(n, "bbCodeSpoiler-button-title")
	})
	if title != nil {
		spoiler.Name = strings.TrimSpace(htmlutil.GetText(title))
	}
	return spoiler
}

func parseLinkNode(node *html.Node) *Element {
	link := &Element{Type: Link, Content: []*Element{}}

	if node.Data == "img" {
		link.Type = Image
		link.Text = htmlutil.Attr(node, "alt")
		link.Href = htmlutil.Attr(node, "data-src")
	} else {
		link.Text = htmlutil.CollapseWhitespace(htmlutil.GetText(node))
		link.Href = htmlutil.Attr(node, "href")
	}
	return link
}

// ParseTree parses a node and recursively fills Content: a spoiler's
// children come from its body block, an empty wrapper's from its own
// children. Link, Image and Text elements are leaves.
func ParseTree(node *html.Node) *Element {
	element := ParseNode(node)

	switch element.Type {
	case Spoiler:
		body := findDescendant(node, func(n *html.Node) bool {
			return n.Type == html.ElementNode && htmlutil.HasClass(n, "bbCodeBlock-content")
		})
		if body != nil {
			element.Content = parseChildren(body)
		}
	case Empty:
		element.Content = parseChildren(node)
	}
	return element
}

func parseChildren(node *html.Node) []*Element {
	out := []*Element{}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		parsed := ParseTree(child)
		if isTrivial(parsed) {
			continue
		}
		out = append(out, parsed)
	}
	return out
}

func isTrivial(e *Element) bool {
	switch e.Type {
	case Text:
		return e.Text == ""
	case Empty:
		return len(e.Content) == 0
	}
	return false
}

// ParseBody parses every node of the selection into the content of a
// single Root element.
func ParseBody(sel *goquery.Selection) *Element {
	root := &Element{Type: Root, Content: []*Element{}}
	for _, node := range sel.Nodes {
		root.Content = append(root.Content, parseChildren(node)...)
	}
	return root
}

func findDescendant(node *html.Node, pred func(*html.Node) bool) *html.Node {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if pred(child) {
			return child
		}
		if found := findDescendant(child, pred); found != nil {
			return found
		}
	}
	return nil
}
