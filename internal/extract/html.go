// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// minContentText is the least visible text a class/id-matched container
// needs before it is preferred over <body>.
const minContentText = 200

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)

	contentIdentifiers = []string{
		"content", "main", "article", "post", "entry", "story",
		"body-content", "page-content", "main-content",
	}

	unwantedTags = map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"meta":     true,
		"link":     true,
		"head":     true,
		"header":   true,
		"footer":   true,
		"nav":      true,
		"aside":    true,
		"iframe":   true,
		"svg":      true,
		"form":     true,
		"button":   true,
	}
)

// toMarkdown returns the document title and the main content of page as
// Markdown.
func toMarkdown(page string) (string, string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", "", err
	}
	title := collapse(textOf(findElement(doc, "title")))

	main := findMainContent(doc)
	removeUnwanted(main)

	var buf bytes.Buffer
	if err := html.Render(&buf, main); err != nil {
		return "", "", err
	}
	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", "", err
	}
	md = blankLinesRe.ReplaceAllString(md, "\n\n")
	return title, strings.TrimSpace(md), nil
}

// findMainContent picks <main>, then <article>, then a substantial element
// whose id or class names it as content, then <body>, then the document.
func findMainContent(doc *html.Node) *html.Node {
	var mains, articles, tagged []*html.Node
	var body *html.Node

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "main":
				mains = append(mains, n)
			case "article":
				articles = append(articles, n)
			case "body":
				body = n
			default:
				if hasContentIdentifier(n) {
					tagged = append(tagged, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	switch {
	case len(mains) > 0:
		return mains[0]
	case len(articles) > 0:
		return articles[0]
	}
	for _, n := range tagged {
		if len(collapse(textOf(n))) >= minContentText {
			return n
		}
	}
	if body != nil {
		return body
	}
	return doc
}

func hasContentIdentifier(n *html.Node) bool {
	for _, attr := range n.Attr {
		var values []string
		switch strings.ToLower(attr.Key) {
		case "id":
			values = []string{attr.Val}
		case "class":
			values = strings.Fields(attr.Val)
		default:
			continue
		}
		for _, v := range values {
			v = strings.ToLower(v)
			for _, id := range contentIdentifiers {
				if strings.Contains(v, id) {
					return true
				}
			}
		}
	}
	return false
}

// removeUnwanted deletes non-content elements below n.
func removeUnwanted(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && unwantedTags[c.Data] {
			n.RemoveChild(c)
		} else {
			removeUnwanted(c)
		}
		c = next
	}
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// textOf concatenates the text nodes below n, skipping script and style.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
