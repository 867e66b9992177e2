package pagination

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResolveURL resolves raw against pageURL and drops any fragment. It reports
// false for empty, unparsable or non-http(s) references.
func ResolveURL(pageURL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "javascript:") {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if !ref.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil {
			return "", false
		}
		ref = base.ResolveReference(ref)
	}

	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	ref.Fragment = ""

	return ref.String(), true
}

// NextFunc locates the "advance to next section" control of a page.
type NextFunc func(doc *goquery.Document, pageURL string) (string, bool)

// LabelLink returns a NextFunc picking the first element matched by selector
// whose text contains label and whose href resolves to an absolute URL.
func LabelLink(selector, label string) NextFunc {
	if selector == "" {
		selector = "a[href]"
	}

	return func(doc *goquery.Document, pageURL string) (string, bool) {
		if doc == nil {
			return "", false
		}

		var next string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.Contains(s.Text(), label) {
				return true
			}
			href, ok := s.Attr("href")
			if !ok {
				return true
			}
			if u, ok := ResolveURL(pageURL, href); ok {
				next = u
				return false
			}
			return true
		})

		return next, next != ""
	}
}

// NoNext is used for sites whose episodes never span sections.
func NoNext(*goquery.Document, string) (string, bool) {
	return "", false
}
