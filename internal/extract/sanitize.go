package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML tags from harvested text. Some legal APIs embed
// markup inside their JSON string fields; passages must be plain text.
// Strings without any tag pass through untouched.
func StripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String()
}
