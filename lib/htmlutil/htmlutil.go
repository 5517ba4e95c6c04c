package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText returns the concatenated text of the node and all its descendants.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CollapseWhitespace trims the string and squeezes internal whitespace
// runs down to single spaces.
func CollapseWhitespace(s string) string {
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, " \t\n")
}

// StripInvisible removes zero-width and control characters that forum
// posts tend to carry around (zero-width spaces, joiners, BOMs, soft
// hyphens), keeping regular whitespace intact.
func StripInvisible(s string) string {
	out := strings.Builder{}
	out.Grow(len(s))
	for _, c := range s {
		if isInvisible(c) {
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}

func isInvisible(c rune) bool {
	if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
		return false
	}
	return unicode.IsControl(c) || unicode.Is(unicode.Cf, c)
}

// Attr returns the value of the named attribute, or "" when absent.
func Attr(node *html.Node, name string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether the node carries the given class token.
func HasClass(node *html.Node, class string) bool {
	for _, token := range strings.Fields(Attr(node, "class")) {
		if token == class {
			return true
		}
	}
	return false
}
