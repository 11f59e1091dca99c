package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Content is the best-effort plain-text rendition of a page's main content.
type Content struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

const (
	// Minimum eligible text for a selector probe hit.
	significantTextLen = 100
	// Minimum eligible text for the largest-block fallback.
	largestBlockMinLen = 200
)

var excludedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"nav":      true,
	"footer":   true,
	"aside":    true,
	"header":   true,
	"form":     true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
}

// Block-level tags that emit a paragraph break so structure survives as
// whitespace.
var blockTags = map[string]bool{
	"p": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "br": true, "tr": true,
}

// Probed in order; the first element with significant text wins.
var mainContentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".post-content",
	".article-content",
	".entry-content",
	".content",
	"#content",
	".post",
	".article",
}

var (
	mainSelectors   []cascadia.Selector
	blockCandidates cascadia.Selector
	bodySelector    cascadia.Selector
)

func init() {
	for _, s := range mainContentSelectors {
		// An unsupported selector is treated as "does not match".
		if sel, err := cascadia.Compile(s); err == nil {
			mainSelectors = append(mainSelectors, sel)
		}
	}
	blockCandidates = cascadia.MustCompile("div, section")
	bodySelector = cascadia.MustCompile("body")
}

// Extract parses the given HTML and returns the main-content text, the page
// title (empty when absent), and the supplied URL. It only fails when the
// input cannot be read; a page with no identifiable article falls back to the
// full body.
func Extract(r io.Reader, pageURL string) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	docNode := doc.Get(0)

	root := findMainContent(docNode)
	if root == nil {
		root = findLargestTextBlock(docNode)
	}
	if root == nil {
		root = bodySelector.MatchFirst(docNode)
	}
	if root == nil {
		root = docNode
	}

	return &Content{
		Text:  cleanText(assembleText(root)),
		Title: title,
		URL:   pageURL,
	}, nil
}

func findMainContent(docNode *html.Node) *html.Node {
	for _, sel := range mainSelectors {
		if n := sel.MatchFirst(docNode); n != nil && hasSignificantText(n) {
			return n
		}
	}
	return nil
}

// findLargestTextBlock scans every div/section and picks the one contributing
// the most eligible text, provided it exceeds the minimum. Ties go to the
// first candidate in document order.
func findLargestTextBlock(docNode *html.Node) *html.Node {
	var best *html.Node
	bestLen := 0

	for _, n := range blockCandidates.MatchAll(docNode) {
		l := eligibleTextLen(n)
		if l > largestBlockMinLen && l > bestLen {
			best = n
			bestLen = l
		}
	}

	return best
}

func hasSignificantText(n *html.Node) bool {
	return len(strings.TrimSpace(textContent(n))) > significantTextLen
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			} else {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// eligibleTextLen measures the trimmed text under n, skipping excluded
// subtrees entirely.
func eligibleTextLen(n *html.Node) int {
	length := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				length += len(strings.TrimSpace(c.Data))
			case html.ElementNode:
				if isExcluded(c) {
					continue
				}
				walk(c)
			}
		}
	}
	walk(n)
	return length
}

// isExcluded reports whether an element and everything under it must be
// ignored: denylisted tags, advertisement markers, and inline-hidden
// elements.
func isExcluded(n *html.Node) bool {
	if excludedTags[n.Data] {
		return true
	}

	class := strings.ToLower(attr(n, "class"))
	id := strings.ToLower(attr(n, "id"))

	if strings.Contains(class, "ad-") ||
		strings.Contains(class, "ads-") ||
		strings.Contains(class, "advertisement") {
		return true
	}
	if strings.Contains(id, "ad-") || strings.Contains(id, "ads-") {
		return true
	}
	if hasAttr(n, "data-ad") {
		return true
	}
	for _, token := range strings.Fields(class) {
		if token == "sponsored" || token == "promotion" {
			return true
		}
	}
	if strings.Contains(strings.ToLower(attr(n, "aria-label")), "advertisement") {
		return true
	}

	if hasAttr(n, "hidden") {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(attr(n, "style"), " ", ""))
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return true
	}

	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// assembleText walks the chosen root in document order, emitting trimmed text
// nodes and a newline marker when entering a block-level element. Excluded
// subtrees are skipped wholesale.
func assembleText(root *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if t := strings.TrimSpace(c.Data); t != "" {
					parts = append(parts, t)
				}
			case html.ElementNode:
				if isExcluded(c) {
					continue
				}
				if blockTags[c.Data] {
					parts = append(parts, "\n")
				}
				walk(c)
			}
		}
	}
	walk(root)
	return strings.Join(parts, " ")
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

func cleanText(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = newlineRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
