package autofill

import (
	"strings"

	"github.com/entrhq/autoapply/pkg/dom"
)

// StepConfig carries platform navigation hints from an adapter. Empty
// lists fall back to generic text defaults.
type StepConfig struct {
	// OpenTexts matches the control that opens the application form
	// (e.g. an "Apply" button on a posting page).
	OpenTexts     []string
	OpenSelectors []string

	// NextTexts matches controls that advance a multi-page flow.
	NextTexts     []string
	NextSelectors []string

	// SubmitTexts matches candidate final-submission controls. A match
	// is only treated as final when its own text implies finality; see
	// impliesFinality.
	SubmitTexts     []string
	SubmitSelectors []string

	// FormSelector scopes fill passes to the form container when set.
	FormSelector string
}

var (
	defaultOpenTexts   = []string{"apply", "apply now", "apply for this job"}
	defaultNextTexts   = []string{"next", "continue", "save and continue", "review"}
	defaultSubmitTexts = []string{"submit", "submit application", "send application", "complete application", "confirm"}

	// finalityTerms gate the submit classification: a candidate control
	// is only reported as the final submit when its text contains one
	// of these, so a stray "Submit feedback" widget cannot halt a run
	// that still has pages to go.
	finalityTerms = []string{"submit", "send application", "complete application", "confirm"}
)

// withDefaults fills empty hint lists with the generic text defaults.
func (c StepConfig) withDefaults() StepConfig {
	if len(c.OpenTexts) == 0 {
		c.OpenTexts = defaultOpenTexts
	}
	if len(c.NextTexts) == 0 {
		c.NextTexts = defaultNextTexts
	}
	if len(c.SubmitTexts) == 0 {
		c.SubmitTexts = defaultSubmitTexts
	}
	return c
}

// impliesFinality reports whether a control's text strongly implies an
// irreversible final action.
func impliesFinality(text string) bool {
	t := strings.ToLower(text)
	for _, term := range finalityTerms {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// Plan is everything the orchestrator needs for one run: the explicit
// field map, the generic scanner rules, the optional resume upload, and
// the navigation hints. Adapters produce plans from a candidate profile.
type Plan struct {
	Descriptors []FieldDescriptor
	Rules       []Rule
	Resume      *dom.FileUpload
	ResumeHints []string
	Steps       StepConfig
}

// Empty reports whether the plan carries nothing to fill.
func (p Plan) Empty() bool {
	return len(p.Descriptors) == 0 && len(p.Rules) == 0 && p.Resume == nil
}
