package autofill

import "strings"

var (
	yesValues = map[string]bool{"yes": true, "true": true, "1": true, "y": true}
	noValues  = map[string]bool{"no": true, "false": true, "0": true, "n": true}
)

// MatchText finds the option whose label matches a free-text value and
// returns its index, or -1.
//
// Three passes in strict order: exact case-insensitive equality, boolean
// normalization (a yes-like or no-like value matches the first option
// whose label starts with "yes" or "no"), then bidirectional substring
// containment. The first pass with any hit wins; there is no scoring and
// no fuzzy distance. The pass order is tuned empirically for
// English-language forms and must not be tightened.
func MatchText(value string, options []string) int {
	want := normalize(value)
	if want == "" {
		return -1
	}

	for i, opt := range options {
		if normalize(opt) == want {
			return i
		}
	}

	if prefix := boolPrefix(want); prefix != "" {
		for i, opt := range options {
			if strings.HasPrefix(normalize(opt), prefix) {
				return i
			}
		}
	}

	for i, opt := range options {
		got := normalize(opt)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return i
		}
	}

	return -1
}

// boolPrefix maps a yes-like or no-like value to the label prefix it
// should match, or "".
func boolPrefix(normalized string) string {
	switch {
	case yesValues[normalized]:
		return "yes"
	case noValues[normalized]:
		return "no"
	default:
		return ""
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeLabel prepares question text for comparison: lower-cased,
// trimmed, with trailing colons and required-field asterisks stripped.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, " \t*:")
	return strings.TrimSpace(s)
}

// labelMatches reports whether an on-page label text matches a wanted
// label: normalized equality first, containment second.
func labelMatches(pageText, wanted string) bool {
	got := normalizeLabel(pageText)
	want := normalizeLabel(wanted)
	if got == "" || want == "" {
		return false
	}
	return got == want || strings.Contains(got, want)
}
