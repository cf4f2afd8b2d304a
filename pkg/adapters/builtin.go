package adapters

import (
	"github.com/entrhq/autoapply/pkg/autofill"
	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/profile"
)

func builtins() []Adapter {
	return []Adapter{greenhouse(), lever(), workday(), ashby()}
}

// withID prepends direct id/name strategies so the platform's stable
// attribute wins before the label chain runs.
func withID(d autofill.FieldDescriptor, id string) autofill.FieldDescriptor {
	direct := []autofill.Strategy{
		{Kind: autofill.StrategyID, Arg: id},
		{Kind: autofill.StrategyName, Arg: id},
	}
	d.Strategies = append(direct, d.Strategies...)
	return d
}

// idFields prepends direct strategies onto the profile's generic
// descriptors for the keys the platform names predictably.
func idFields(prof *profile.Profile, ids map[string]string) []autofill.FieldDescriptor {
	ds := prof.Descriptors()
	for i, d := range ds {
		if id, ok := ids[d.Key]; ok {
			ds[i] = withID(d, id)
		}
	}
	return ds
}

func greenhouse() Adapter {
	return Adapter{
		Name:         "greenhouse",
		HostPatterns: []string{"boards.greenhouse.io", "job-boards.greenhouse.io", "*.greenhouse.io"},
		DetectForm: func(doc dom.Document) bool {
			return doc.Query("#application_form") != nil || doc.Query("#application-form") != nil
		},
		FieldMap: func(prof *profile.Profile) []autofill.FieldDescriptor {
			return idFields(prof, map[string]string{
				"first_name": "first_name",
				"last_name":  "last_name",
				"email":      "email",
				"phone":      "phone",
			})
		},
		ResumeInputHints: []string{
			`[data-field="resume"] input[type="file"]`,
			"#resume",
		},
		Steps: &autofill.StepConfig{
			FormSelector:    "#application_form, #application-form",
			SubmitSelectors: []string{"#submit_app"},
			SubmitTexts:     []string{"submit application", "submit"},
		},
	}
}

func lever() Adapter {
	return Adapter{
		Name:         "lever",
		HostPatterns: []string{"jobs.lever.co", "*.lever.co"},
		DetectForm: func(doc dom.Document) bool {
			return doc.Query("#application-form") != nil || doc.Query(".application-page") != nil
		},
		FieldMap: func(prof *profile.Profile) []autofill.FieldDescriptor {
			return idFields(prof, map[string]string{
				"full_name": "name",
				"email":     "email",
				"phone":     "phone",
				"company":   "org",
			})
		},
		ResumeInputHints: []string{
			"#resume-upload-input",
			`input[name="resume"]`,
		},
		Steps: &autofill.StepConfig{
			FormSelector: "#application-form",
			OpenTexts:    []string{"apply for this job", "apply now"},
			SubmitTexts:  []string{"submit application"},
		},
	}
}

func workday() Adapter {
	return Adapter{
		Name:         "workday",
		HostPatterns: []string{"*.myworkdayjobs.com", "*.wd1.myworkdayjobs.com", "*.workday.com"},
		DetectForm: func(doc dom.Document) bool {
			return doc.Query(`[data-automation-id="jobApplication"]`) != nil
		},
		ResumeInputHints: []string{
			`[data-automation-id="file-upload-input-ref"]`,
		},
		Steps: &autofill.StepConfig{
			OpenSelectors: []string{`[data-automation-id="adventureButton"]`},
			OpenTexts:     []string{"apply", "apply manually"},
			NextSelectors: []string{`[data-automation-id="pageFooterNextButton"]`},
			NextTexts:     []string{"next", "continue", "save and continue", "review"},
			SubmitTexts:   []string{"submit"},
		},
	}
}

func ashby() Adapter {
	return Adapter{
		Name:         "ashby",
		HostPatterns: []string{"jobs.ashbyhq.com", "*.ashbyhq.com"},
		DetectForm: func(doc dom.Document) bool {
			return doc.Query(`[class*="application-form"]`) != nil || doc.Query("form") != nil
		},
		FieldMap: func(prof *profile.Profile) []autofill.FieldDescriptor {
			return idFields(prof, map[string]string{
				"full_name": "_systemfield_name",
				"email":     "_systemfield_email",
			})
		},
		ResumeInputHints: []string{
			"#_systemfield_resume",
			`input[type="file"]`,
		},
		Steps: &autofill.StepConfig{
			SubmitTexts: []string{"submit application"},
		},
	}
}
