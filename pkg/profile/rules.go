package profile

import (
	"github.com/entrhq/autoapply/pkg/autofill"
)

// Rules derives the ordered question table for the label scanner. Extra
// Q&A entries come first and match the verbatim question text; the
// built-in pattern sets follow in a fixed order. Specific patterns are
// listed before generic ones so "first name" wins over "name". Empty
// profile values yield no rule.
func (p *Profile) Rules() []autofill.Rule {
	var rules []autofill.Rule
	add := func(value string, patterns ...string) {
		if value != "" {
			rules = append(rules, autofill.Rule{Patterns: patterns, Value: value})
		}
	}

	for _, q := range sortedKeys(p.Extra) {
		add(p.Extra[q], q)
	}

	add(p.Basics.FirstName, "first name", "given name")
	add(p.Basics.LastName, "last name", "family name", "surname")
	add(p.FullName(), "full name", "your name", "legal name")
	add(p.Basics.Email, "email", "e-mail")
	add(p.Basics.Phone, "phone", "mobile", "telephone")
	add(p.Basics.LinkedIn, "linkedin")
	add(p.Basics.Website, "website", "portfolio", "personal site", "github")

	if w := p.CurrentWork(); w != nil {
		add(w.Company, "current company", "current employer", "company name", "employer")
		add(w.Title, "current title", "job title", "current role", "current position")
	}
	if len(p.Education) > 0 {
		e := p.Education[0]
		add(e.School, "school", "university", "college", "institution")
		add(e.Degree, "degree", "qualification")
		add(e.Field, "field of study", "major", "discipline")
	}

	add(p.Location.City, "city", "town")
	add(p.Location.Region, "state", "province", "region")
	add(p.Location.PostalCode, "zip", "postal code", "postcode")
	add(p.Location.Country, "country")

	add(p.Preferences.WorkAuthorization, "authorized to work", "work authorization", "legally authorized", "right to work", "eligible to work")
	add(p.Preferences.RequiresSponsorship, "sponsorship", "require visa", "visa status")
	add(p.Preferences.RemoteOK, "work remotely", "remote work", "remote position")
	add(p.Preferences.Relocate, "relocate", "relocation", "willing to move")
	add(p.Preferences.SalaryExpectation, "salary", "compensation", "expected pay", "desired pay")
	add(p.Preferences.NoticePeriod, "notice period", "start date", "when can you start", "availability")
	add(p.Preferences.VeteranStatus, "veteran")
	add(p.Preferences.DisabilityStatus, "disability")
	add(p.Preferences.Gender, "gender")
	add(p.Preferences.Ethnicity, "ethnicity", "race")

	return rules
}

// Descriptors builds the explicit field map an adapter can refine. Keys
// are stable identifiers; labels drive the resolver's strategy chain.
func (p *Profile) Descriptors() []autofill.FieldDescriptor {
	var out []autofill.FieldDescriptor
	add := func(key, value string, labels ...string) {
		if value != "" {
			out = append(out, autofill.Field(key, value, labels...))
		}
	}

	add("first_name", p.Basics.FirstName, "First Name")
	add("last_name", p.Basics.LastName, "Last Name")
	add("full_name", p.FullName(), "Full Name", "Name")
	add("email", p.Basics.Email, "Email", "Email Address")
	add("phone", p.Basics.Phone, "Phone", "Phone Number")
	add("linkedin", p.Basics.LinkedIn, "LinkedIn", "LinkedIn Profile")
	add("website", p.Basics.Website, "Website", "Portfolio")

	if w := p.CurrentWork(); w != nil {
		add("company", w.Company, "Current Company", "Company")
		add("title", w.Title, "Current Title", "Job Title")
	}

	add("city", p.Location.City, "City")
	add("region", p.Location.Region, "State", "Province")
	add("postal_code", p.Location.PostalCode, "Zip", "Postal Code")
	add("country", p.Location.Country, "Country")

	return out
}
