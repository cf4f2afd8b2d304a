package jobpost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOpenGraph(t *testing.T) {
	p := Extract(`
		<html><head>
			<meta property="og:title" content="Senior Go Engineer">
			<meta property="og:site_name" content="Acme Corp">
		</head><body></body></html>`)

	assert.Equal(t, "Senior Go Engineer", p.Title)
	assert.Equal(t, "Acme Corp", p.Company)
}

func TestExtractFromDocumentTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		role    string
		company string
	}{
		{"dash", "Senior Go Engineer - Acme Corp", "Senior Go Engineer", "Acme Corp"},
		{"pipe", "Platform Engineer | Initech", "Platform Engineer", "Initech"},
		{"at", "Data Engineer at Hooli", "Data Engineer", "Hooli"},
		{"trailing segment dropped", "Engineer - Acme | Careers", "Engineer", "Acme"},
		{"no separator", "Careers", "Careers", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Extract(`<html><head><title>` + tt.title + `</title></head></html>`)
			assert.Equal(t, tt.role, p.Title)
			assert.Equal(t, tt.company, p.Company)
		})
	}
}

func TestExtractHeaderFallbacks(t *testing.T) {
	p := Extract(`
		<html><body>
			<h1>  Staff   Engineer </h1>
			<div class="company-name">Acme Corp</div>
			<span class="posting-location">Remote, US</span>
		</body></html>`)

	assert.Equal(t, "Staff Engineer", p.Title, "whitespace collapsed")
	assert.Equal(t, "Acme Corp", p.Company)
	assert.Equal(t, "Remote, US", p.Location)
}

func TestExtractOpenGraphWins(t *testing.T) {
	p := Extract(`
		<html><head>
			<meta property="og:title" content="Engineer">
			<title>Something Else - Other Co</title>
		</head><body><h1>Ignored</h1></body></html>`)

	assert.Equal(t, "Engineer", p.Title)
	assert.Equal(t, "Other Co", p.Company, "title split still fills missing company")
}

func TestExtractEmptyInput(t *testing.T) {
	assert.Equal(t, Posting{}, Extract(""))
}
