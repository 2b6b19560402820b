package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// detectCaptcha scans a DOM snapshot for known CAPTCHA fingerprints and
// returns the first matching indicator, or "" when the page looks clean.
// The scan runs on a static snapshot so it cannot race with page scripts.
func detectCaptcha(doc *goquery.Document) string {
	for _, sel := range captchaIndicators {
		if doc.Find(sel).Length() > 0 {
			return sel
		}
	}
	return ""
}

// matchTriple reports whether all three login selectors are present in
// the given DOM snapshot.
func matchTriple(doc *goquery.Document, triple loginTriple) bool {
	return doc.Find(triple.User).Length() > 0 &&
		doc.Find(triple.Pass).Length() > 0 &&
		doc.Find(triple.Submit).Length() > 0
}

// parseDOM parses an HTML snapshot taken from the live page.
func parseDOM(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
