package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Text       string // Link text, alt text or rel value
	Tag        string // HTML tag (a, img, link, script)
	Attribute  string // Attribute containing the link (href, src)
	IsInternal bool   // True if the target lives inside the generated tree
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]*Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		_ = file.Close() // Ignore close errors on read-only operation
	}()

	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var links []*Link

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			extractElementLinks(n, &links)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return links, nil
}

// extractElementLinks extracts links from a single HTML element.
func extractElementLinks(n *html.Node, links *[]*Link) {
	switch n.Data {
	case "a":
		if href := getAttr(n, "href"); href != "" {
			*links = append(*links, &Link{
				URL:        href,
				Text:       extractText(n),
				Tag:        "a",
				Attribute:  "href",
				IsInternal: isInternalLink(href),
			})
		}
	case "img":
		if src := getAttr(n, "src"); src != "" {
			*links = append(*links, &Link{
				URL:        src,
				Text:       getAttr(n, "alt"),
				Tag:        "img",
				Attribute:  "src",
				IsInternal: isInternalLink(src),
			})
		}
	case "script":
		if src := getAttr(n, "src"); src != "" {
			*links = append(*links, &Link{
				URL:        src,
				Tag:        "script",
				Attribute:  "src",
				IsInternal: isInternalLink(src),
			})
		}
	case "link":
		if href := getAttr(n, "href"); href != "" {
			*links = append(*links, &Link{
				URL:        href,
				Text:       getAttr(n, "rel"),
				Tag:        "link",
				Attribute:  "href",
				IsInternal: isInternalLink(href),
			})
		}
	}
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}

	return strings.TrimSpace(text.String())
}

// isInternalLink determines if a URL targets the generated tree itself.
func isInternalLink(linkURL string) bool {
	if strings.HasPrefix(linkURL, "#") {
		return true
	}
	if strings.HasPrefix(linkURL, "mailto:") ||
		strings.HasPrefix(linkURL, "tel:") ||
		strings.HasPrefix(linkURL, "javascript:") ||
		strings.HasPrefix(linkURL, "data:") {
		return false
	}

	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}

	// Scheme-relative URLs carry a host and leave the tree.
	return u.Scheme == "" && u.Host == ""
}

// shouldCheckLink filters out targets that never map to files.
func shouldCheckLink(link *Link) bool {
	if link.URL == "" || strings.HasPrefix(link.URL, "#") {
		return false
	}
	if strings.HasPrefix(link.URL, "mailto:") ||
		strings.HasPrefix(link.URL, "tel:") ||
		strings.HasPrefix(link.URL, "javascript:") ||
		strings.HasPrefix(link.URL, "data:") {
		return false
	}
	return true
}
