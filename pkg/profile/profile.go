// Package profile holds the candidate record that drives a run and
// derives the generic question rules from it.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Basics is the candidate's identity and contact block.
type Basics struct {
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	FullName  string `json:"full_name" yaml:"full_name"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone" yaml:"phone"`
	LinkedIn  string `json:"linkedin" yaml:"linkedin"`
	Website   string `json:"website" yaml:"website"`
}

// Work is one employment entry. Entries are ordered most recent first;
// the first entry is treated as the current position.
type Work struct {
	Company string `json:"company" yaml:"company"`
	Title   string `json:"title" yaml:"title"`
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Current bool   `json:"current" yaml:"current"`
	Summary string `json:"summary" yaml:"summary"`
}

// Education is one schooling entry.
type Education struct {
	School string `json:"school" yaml:"school"`
	Degree string `json:"degree" yaml:"degree"`
	Field  string `json:"field" yaml:"field"`
	Start  string `json:"start" yaml:"start"`
	End    string `json:"end" yaml:"end"`
}

// Location is the candidate's current address block.
type Location struct {
	City       string `json:"city" yaml:"city"`
	Region     string `json:"region" yaml:"region"`
	Country    string `json:"country" yaml:"country"`
	PostalCode string `json:"postal_code" yaml:"postal_code"`
}

// Preferences carries the screening answers applications commonly ask
// for. Values are stored as the literal answer text.
type Preferences struct {
	WorkAuthorization   string `json:"work_authorization" yaml:"work_authorization"`
	RequiresSponsorship string `json:"requires_sponsorship" yaml:"requires_sponsorship"`
	RemoteOK            string `json:"remote_ok" yaml:"remote_ok"`
	Relocate            string `json:"relocate" yaml:"relocate"`
	SalaryExpectation   string `json:"salary_expectation" yaml:"salary_expectation"`
	NoticePeriod        string `json:"notice_period" yaml:"notice_period"`
	VeteranStatus       string `json:"veteran_status" yaml:"veteran_status"`
	DisabilityStatus    string `json:"disability_status" yaml:"disability_status"`
	Gender              string `json:"gender" yaml:"gender"`
	Ethnicity           string `json:"ethnicity" yaml:"ethnicity"`
}

// Profile is the full candidate record.
type Profile struct {
	Basics      Basics      `json:"basics" yaml:"basics"`
	Work        []Work      `json:"work" yaml:"work"`
	Education   []Education `json:"education" yaml:"education"`
	Location    Location    `json:"location" yaml:"location"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`

	// Extra maps verbatim screening questions to answers. These take
	// precedence over every derived rule.
	Extra map[string]string `json:"extra" yaml:"extra"`
}

// Load reads a profile from a JSON or YAML file, chosen by extension.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile %q: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile %q: %w", path, err)
		}
	}
	return &p, nil
}

// FullName returns the explicit full name or composes one from the
// first and last names.
func (p *Profile) FullName() string {
	if p.Basics.FullName != "" {
		return p.Basics.FullName
	}
	return strings.TrimSpace(p.Basics.FirstName + " " + p.Basics.LastName)
}

// CurrentWork returns the current employment entry, preferring an entry
// marked current over plain ordering.
func (p *Profile) CurrentWork() *Work {
	for i := range p.Work {
		if p.Work[i].Current {
			return &p.Work[i]
		}
	}
	if len(p.Work) > 0 {
		return &p.Work[0]
	}
	return nil
}

// Summary renders the profile as a short plain-text candidate summary
// for use as answer-provider context.
func (p *Profile) Summary() string {
	var b strings.Builder
	writeLine := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	writeLine("Name", p.FullName())
	writeLine("Email", p.Basics.Email)
	writeLine("Phone", p.Basics.Phone)
	writeLine("LinkedIn", p.Basics.LinkedIn)
	writeLine("Location", joinNonEmpty(", ", p.Location.City, p.Location.Region, p.Location.Country))

	if w := p.CurrentWork(); w != nil {
		writeLine("Current role", joinNonEmpty(" at ", w.Title, w.Company))
		writeLine("Role summary", w.Summary)
	}
	for _, e := range p.Education {
		writeLine("Education", joinNonEmpty(", ", e.School, e.Degree, e.Field))
	}

	writeLine("Work authorization", p.Preferences.WorkAuthorization)
	writeLine("Requires sponsorship", p.Preferences.RequiresSponsorship)
	writeLine("Open to remote", p.Preferences.RemoteOK)
	writeLine("Willing to relocate", p.Preferences.Relocate)
	writeLine("Salary expectation", p.Preferences.SalaryExpectation)
	writeLine("Notice period", p.Preferences.NoticePeriod)

	for _, q := range sortedKeys(p.Extra) {
		if a := p.Extra[q]; a != "" {
			fmt.Fprintf(&b, "Q: %s A: %s\n", q, a)
		}
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
