package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentstation/uppbod/pkg/errors"
)

const blockElements = "p, div, li, tr, h1, h2, h3, h4, h5, h6"

// PlainText strips markup from an HTML fragment. Block elements and <br>
// become line breaks; runs of whitespace inside a line collapse to one space.
func PlainText(html string) (string, error) {
	if !strings.ContainsAny(html, "<&") {
		return strings.TrimSpace(html), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, errors.WrapParse("html", "", err)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
