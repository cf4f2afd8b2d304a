package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autoapply/pkg/autofill"
	"github.com/entrhq/autoapply/pkg/dom/memdom"
	"github.com/entrhq/autoapply/pkg/profile"
	"github.com/entrhq/autoapply/pkg/resume"
)

func TestLookupByHost(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", "greenhouse"},
		{"https://job-boards.greenhouse.io/acme/jobs/123", "greenhouse"},
		{"https://jobs.lever.co/acme/abc-123", "lever"},
		{"https://acme.wd1.myworkdayjobs.com/en-US/careers/job/123", "workday"},
		{"https://jobs.ashbyhq.com/acme/abc", "ashby"},
		{"https://careers.example.com/jobs/1", "generic"},
		{"not a url at all", "generic"},
		{"", "generic"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Lookup(tt.url).Name, "url %q", tt.url)
	}
}

func TestRegisterRejectsBadPattern(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Adapter{Name: "broken", HostPatterns: []string{"["}})
	assert.Error(t, err)
}

func TestRegisterCustomAdapter(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Adapter{Name: "internal", HostPatterns: []string{"apply.corp.example"}}))

	assert.Equal(t, "internal", r.Lookup("https://apply.corp.example/jobs/1").Name)
}

func TestByName(t *testing.T) {
	r := NewRegistry()

	a, ok := r.ByName("lever")
	require.True(t, ok)
	assert.Equal(t, "lever", a.Name)

	a, ok = r.ByName("generic")
	require.True(t, ok)
	assert.Equal(t, "generic", a.Name)

	_, ok = r.ByName("nope")
	assert.False(t, ok)
}

func TestDetectForm(t *testing.T) {
	r := NewRegistry()
	gh, ok := r.ByName("greenhouse")
	require.True(t, ok)

	withForm := memdom.MustParse(`<form id="application_form"><input id="first_name"></form>`)
	without := memdom.MustParse(`<div>job description</div>`)

	assert.True(t, gh.DetectForm(withForm))
	assert.False(t, gh.DetectForm(without))
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Basics: profile.Basics{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
		},
	}
}

func TestBuildPlanWithPlatformFields(t *testing.T) {
	r := NewRegistry()
	gh, _ := r.ByName("greenhouse")

	cv := &resume.File{Name: "cv.pdf", MIME: "application/pdf", Data: []byte("%PDF-")}
	plan := BuildPlan(gh, testProfile(), cv)

	require.NotEmpty(t, plan.Descriptors)
	var first *autofill.FieldDescriptor
	for i := range plan.Descriptors {
		if plan.Descriptors[i].Key == "first_name" {
			first = &plan.Descriptors[i]
		}
	}
	require.NotNil(t, first)
	// The platform's stable id strategy runs before the label chain.
	require.NotEmpty(t, first.Strategies)
	assert.Equal(t, autofill.StrategyID, first.Strategies[0].Kind)
	assert.Equal(t, "first_name", first.Strategies[0].Arg)

	assert.NotEmpty(t, plan.Rules, "scanner rules derive from the profile")
	require.NotNil(t, plan.Resume)
	assert.Equal(t, "cv.pdf", plan.Resume.Name)
	assert.Contains(t, plan.ResumeHints, "#resume")
	assert.Equal(t, []string{"submit application", "submit"}, plan.Steps.SubmitTexts)
	assert.False(t, plan.Empty())
}

func TestBuildPlanGenericFallback(t *testing.T) {
	plan := BuildPlan(Generic(), testProfile(), nil)

	require.NotEmpty(t, plan.Descriptors, "generic descriptors come from the profile")
	assert.Nil(t, plan.Resume)
	assert.Empty(t, plan.Steps.SubmitSelectors)
	assert.Empty(t, plan.ResumeHints)
}

func TestBuildPlanEndToEndFill(t *testing.T) {
	doc := memdom.MustParse(`
		<form id="application_form">
			<input id="first_name">
			<input id="last_name">
			<label for="em">Email</label><input id="em">
		</form>`)

	r := NewRegistry()
	gh, _ := r.ByName("greenhouse")
	plan := BuildPlan(gh, testProfile(), nil)

	o := autofill.New(doc, plan,
		autofill.WithSettleDelay(1),
		autofill.WithQuietWindow(10),
	)
	res, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, autofill.StateDone, res.State)
	assert.Equal(t, "Ada", doc.Query("#first_name").Value())
	assert.Equal(t, "Lovelace", doc.Query("#last_name").Value())
	assert.Equal(t, "ada@example.com", doc.Query("#em").Value())
}
