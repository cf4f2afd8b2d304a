// Package jobpost extracts display metadata from a job posting page.
// The result feeds status output only; a run never depends on it.
package jobpost

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Posting is the metadata shown alongside a run.
type Posting struct {
	Title    string
	Company  string
	Location string
}

// titleSeparators split a document title like "Engineer - Acme | Jobs"
// into its role and company parts.
var titleSeparators = []string{" - ", " | ", " – ", " at "}

// Extract pulls posting metadata out of raw page HTML. Missing fields
// stay empty; malformed HTML yields a zero Posting, never an error the
// caller has to handle.
func Extract(html string) Posting {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Posting{}
	}

	var p Posting
	p.Title = metaContent(doc, "og:title")
	p.Company = metaContent(doc, "og:site_name")

	if p.Title == "" {
		p.Title = clean(doc.Find("h1").First().Text())
	}
	if p.Title == "" {
		p.Title = clean(doc.Find(`[class*="job-title"], [class*="posting-headline"]`).First().Text())
	}

	// A document title often carries both role and company.
	if docTitle := clean(doc.Find("title").First().Text()); docTitle != "" {
		role, company := splitTitle(docTitle)
		if p.Title == "" {
			p.Title = role
		}
		if p.Company == "" {
			p.Company = company
		}
	}

	if p.Company == "" {
		p.Company = clean(doc.Find(`[class*="company-name"], [class*="employer"]`).First().Text())
	}
	p.Location = clean(doc.Find(`[class*="location"]`).First().Text())

	return p
}

func metaContent(doc *goquery.Document, property string) string {
	sel := `meta[property="` + property + `"], meta[name="` + property + `"]`
	content, _ := doc.Find(sel).First().Attr("content")
	return clean(content)
}

// splitTitle breaks a combined document title into role and company on
// the first separator found. "Engineer - Acme | Jobs" keeps only the
// first trailing segment as the company.
func splitTitle(title string) (role, company string) {
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i > 0 {
			rest := title[i+len(sep):]
			for _, s := range titleSeparators {
				if j := strings.Index(rest, s); j > 0 {
					rest = rest[:j]
				}
			}
			return clean(title[:i]), clean(rest)
		}
	}
	return title, ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
