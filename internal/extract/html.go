package extract

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML reads the body text of an HTML file, one paragraph per line.
// Script, style, and navigation chrome are stripped before text extraction.
func extractHTML(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot open document", Cause: err}
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot parse HTML", Cause: err}
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	return strings.Split(body.Text(), "\n"), nil
}
