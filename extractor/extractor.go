/*
	extractor package turns raw page HTML into a normalized index.Document:
	title, meta description, heading-prioritized body text and the filtered
	list of outgoing same-origin links. Pages whose structure the parser
	cannot interpret still produce a document through a raw tag-stripping
	fallback pass.
*/

package extractor

import (
	"fmt"
	stdhtml "html"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/mycok/sitesearch/textindexer/index"
)

// MaxContentLength bounds the normalized body text of a document to keep
// the index size bounded.
const MaxContentLength = 100_000

// TitlePlaceholder is used for pages without a title element.
const TitlePlaceholder = "Untitled page"

var (
	// Locate links that point to binary or static assets that never
	// contain indexable page content.
	assetExclusionRegex = regexp.MustCompile(
		`(?i)\.(?:pdf|jpg|jpeg|png|gif|ico|svg|webp|bmp|zip|tar|gz|tgz|rar|7z|css|js|mjs|woff2?|ttf|eot|mp3|mp4|avi|mov|webm)$`,
	)

	repeatedSpaceRegex = regexp.MustCompile(`\s+`)

	// StrictPolicy allocations are not cheap, so instances are pooled and
	// shared by concurrent extraction tasks.
	policyPool = sync.Pool{
		New: func() interface{} {
			return bluemonday.StrictPolicy()
		},
	}
)

// Extract parses rawHTML fetched from pageURL and builds a normalized
// document plus the plain list of outgoing same-origin link URLs used to
// seed the frontier.
func Extract(pageURL, rawHTML string) (*index.Document, []string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("extract: parse page url: %w", err)
	}

	page := parsePage(base, rawHTML)

	content := collapse(page.headings + " " + page.body)
	if content == "" {
		// The parser could not find any text: strip all tags from the raw
		// HTML instead so a document is still produced.
		policy := policyPool.Get().(*bluemonday.Policy)
		content = collapse(stdhtml.UnescapeString(policy.Sanitize(rawHTML)))
		policyPool.Put(policy)
	}

	if len(content) > MaxContentLength {
		// Back the cut position up to a rune boundary so truncation never
		// splits a multi-byte character.
		cut := MaxContentLength
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}

		content = strings.TrimSpace(content[:cut])
	}

	title := collapse(page.title)
	if title == "" {
		title = TitlePlaceholder
	}

	doc := &index.Document{
		ID:          index.DocumentID(pageURL),
		URL:         pageURL,
		Title:       title,
		Description: collapse(page.description),
		Content:     content,
		Links:       serializeLinks(page.links),
	}

	hrefs := make([]string, len(page.links))
	for i, link := range page.links {
		hrefs[i] = link.href
	}

	return doc, hrefs, nil
}

// link pairs an anchor's text with its resolved absolute URL.
type link struct {
	text string
	href string
}

type parsedPage struct {
	title       string
	description string
	headings    string
	body        string
	links       []link
}

func parsePage(base *url.URL, rawHTML string) *parsedPage {
	page := new(parsedPage)

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// html.Parse is tolerant by design; a hard error leaves the page
		// empty and the raw-stripping fallback takes over.
		return page
	}

	var (
		headings strings.Builder
		body     strings.Builder
		seen     = make(map[string]struct{})
	)

	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "iframe", "svg":
				return

			case "title":
				if page.title == "" {
					page.title = nodeText(n)
				}

				return

			case "meta":
				if strings.EqualFold(attr(n, "name"), "description") {
					page.description = attr(n, "content")
				}

			case "body":
				inBody = true

			case "h1", "h2", "h3", "h4", "h5":
				headings.WriteString(nodeText(n))
				headings.WriteByte(' ')

			case "a":
				if resolved := resolveLink(base, attr(n, "href")); resolved != "" {
					if _, exists := seen[resolved]; !exists {
						seen[resolved] = struct{}{}
						page.links = append(page.links, link{
							text: collapse(nodeText(n)),
							href: resolved,
						})
					}
				}
			}
		}

		if n.Type == html.TextNode && inBody {
			body.WriteString(n.Data)
			body.WriteByte(' ')
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inBody)
		}
	}

	walk(root, false)

	page.headings = headings.String()
	page.body = body.String()

	return page
}

// resolveLink expands href into an absolute URL relative to the page's own
// URL and returns it only when it is a same-origin, non-fragment link that
// does not point at a binary / static asset.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)

	// Skip missing hrefs and html anchors into the same page.
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)

	// Skip links with non HTTP(S) schemes.
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	// Keep same-origin links only: crawling never leaves the site.
	if resolved.Hostname() != base.Hostname() {
		return ""
	}

	// Truncate / remove html anchors. ie, in "https://example.com/a#foo"
	// the "#foo" is dropped.
	resolved.Fragment = ""

	resolvedString := resolved.String()

	if assetExclusionRegex.MatchString(resolved.Path) {
		return ""
	}

	return resolvedString
}

// serializeLinks renders the filtered link list as "text (href)" pairs for
// the document's indexable links field.
func serializeLinks(links []link) string {
	pairs := make([]string, len(links))

	for i, l := range links {
		if l.text == "" {
			pairs[i] = l.href

			continue
		}

		pairs[i] = fmt.Sprintf("%s (%s)", l.text, l.href)
	}

	return strings.Join(pairs, ", ")
}

// attr returns the value of the named attribute on n, matching the key
// case-insensitively. Missing attributes yield "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}

	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(n)

	return sb.String()
}

// collapse reduces all whitespace runs to single spaces and trims the ends.
func collapse(s string) string {
	return strings.TrimSpace(repeatedSpaceRegex.ReplaceAllString(s, " "))
}
