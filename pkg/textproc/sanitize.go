// Package textproc cleans synthesis input text before it reaches a provider.
package textproc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitize strips markup from tutor-generated text so providers receive
// plain prose. Chat responses occasionally carry HTML fragments; speech
// engines read tags out loud if they survive.
func Sanitize(text string) string {
	if !strings.ContainsAny(text, "<>") {
		return collapseWhitespace(text)
	}

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		// Unparseable input degrades to the raw text rather than failing.
		return collapseWhitespace(text)
	}

	var sb strings.Builder
	extractText(doc, &sb)
	return collapseWhitespace(sb.String())
}

func extractText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		// Script and style bodies are never speakable.
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
