package probe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageTitle returns the trimmed <title> text of an HTML body, or "".
func PageTitle(body string) string {
	if !strings.Contains(body, "<") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
