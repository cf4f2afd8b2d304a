package autofill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/dom/memdom"
)

func resolveIn(t *testing.T, src string, d FieldDescriptor) dom.Element {
	t.Helper()
	doc := memdom.MustParse(src)
	return NewResolver(doc, nil).Resolve(nil, d)
}

func TestResolveByIDAndName(t *testing.T) {
	src := `<input id="first_name"><input name="last_name">`

	el := resolveIn(t, src, FieldDescriptor{Key: "first", Strategies: []Strategy{{Kind: StrategyID, Arg: "first_name"}}})
	require.NotNil(t, el)
	assert.Equal(t, "first_name", el.Attr("id"))

	el = resolveIn(t, src, FieldDescriptor{Key: "last", Strategies: []Strategy{{Kind: StrategyName, Arg: "last_name"}}})
	require.NotNil(t, el)
	assert.Equal(t, "last_name", el.Attr("name"))
}

func TestResolveLabelFor(t *testing.T) {
	el := resolveIn(t, `
		<label for="email">Email</label>
		<input type="text" id="email">`,
		Field("email", "a@b.com", "Email"))
	require.NotNil(t, el)
	assert.Equal(t, "email", el.Attr("id"))
}

func TestResolveControlInsideLabel(t *testing.T) {
	el := resolveIn(t, `
		<label>Phone number <input type="tel" name="phone"></label>`,
		Field("phone", "555", "Phone number"))
	require.NotNil(t, el)
	assert.Equal(t, "phone", el.Attr("name"))
}

func TestResolveLabelSibling(t *testing.T) {
	el := resolveIn(t, `
		<div><label>City</label><input name="city"></div>`,
		Field("city", "Toronto", "City"))
	require.NotNil(t, el)
	assert.Equal(t, "city", el.Attr("name"))
}

func TestResolveSiblingWrapsControl(t *testing.T) {
	// The class-flagged span is not a <label> but matches the
	// pseudo-label scan.
	el := resolveIn(t, `
		<div>
			<span class="question">LinkedIn profile</span>
			<div class="wrap"><input name="linkedin"></div>
		</div>`,
		FieldDescriptor{Key: "li", Strategies: []Strategy{{Kind: StrategySiblingWraps, Arg: "LinkedIn profile"}}})
	require.NotNil(t, el)
	assert.Equal(t, "linkedin", el.Attr("name"))
}

func TestResolveReverseReference(t *testing.T) {
	el := resolveIn(t, `
		<span id="company-q" class="question">Current company</span>
		<div><div><input aria-labelledby="company-q other" name="company"></div></div>`,
		FieldDescriptor{Key: "company", Strategies: []Strategy{{Kind: StrategyReverseRef, Arg: "Current company"}}})
	require.NotNil(t, el)
	assert.Equal(t, "company", el.Attr("name"))
}

func TestAncestorScan(t *testing.T) {
	t.Run("single candidate wins", func(t *testing.T) {
		el := resolveIn(t, `
			<div><div><label>Website</label><div><input name="website"></div></div></div>`,
			FieldDescriptor{Key: "web", Strategies: []Strategy{{Kind: StrategyAncestorScan, Arg: "Website"}}})
		require.NotNil(t, el)
		assert.Equal(t, "website", el.Attr("name"))
	})

	t.Run("few candidates need explicit association", func(t *testing.T) {
		el := resolveIn(t, `
			<div>
				<label for="b">Salary</label>
				<input id="a"><input id="b"><input id="c">
			</div>`,
			FieldDescriptor{Key: "salary", Strategies: []Strategy{{Kind: StrategyAncestorScan, Arg: "Salary"}}})
		require.NotNil(t, el)
		assert.Equal(t, "b", el.Attr("id"))
	})

	t.Run("few unassociated candidates are never guessed", func(t *testing.T) {
		el := resolveIn(t, `
			<div>
				<label>Salary</label>
				<input id="a"><input id="b">
			</div>`,
			FieldDescriptor{Key: "salary", Strategies: []Strategy{{Kind: StrategyAncestorScan, Arg: "Salary"}}})
		assert.Nil(t, el)
	})

	t.Run("more than four candidates are never guessed", func(t *testing.T) {
		el := resolveIn(t, `
			<div>
				<label for="a">Salary</label>
				<input id="a"><input><input><input><input>
			</div>`,
			FieldDescriptor{Key: "salary", Strategies: []Strategy{{Kind: StrategyAncestorScan, Arg: "Salary"}}})
		assert.Nil(t, el)
	})
}

func TestResolveFieldContainer(t *testing.T) {
	el := resolveIn(t, `
		<div class="application-field">
			<div><span class="question-text">Notice period</span></div>
			<div><div><input name="notice"></div></div>
		</div>`,
		FieldDescriptor{Key: "notice", Strategies: []Strategy{{Kind: StrategyFieldContainer, Arg: "Notice period"}}})
	require.NotNil(t, el)
	assert.Equal(t, "notice", el.Attr("name"))
}

func TestResolveForwardSiblings(t *testing.T) {
	el := resolveIn(t, `
		<div>
			<label>Degree</label>
			<span>help text</span>
			<div><input name="degree"></div>
		</div>`,
		FieldDescriptor{Key: "degree", Strategies: []Strategy{{Kind: StrategyForwardSiblings, Arg: "Degree"}}})
	require.NotNil(t, el)
	assert.Equal(t, "degree", el.Attr("name"))
}

func TestResolveByPlaceholder(t *testing.T) {
	el := resolveIn(t, `<input placeholder="Enter your email address">`,
		FieldDescriptor{Key: "email", Strategies: []Strategy{{Kind: StrategyPlaceholder, Arg: "email"}}})
	require.NotNil(t, el)
}

func TestResolvePrefersVisibleThenFallsBack(t *testing.T) {
	src := `
		<label for="hidden-email" style="display:none">Email</label>
		<input id="hidden-email" style="display:none">
		<label for="shown-email">Email</label>
		<input id="shown-email">`

	doc := memdom.MustParse(src)
	r := NewResolver(doc, nil)

	el := r.Resolve(nil, Field("email", "a@b.com", "Email"))
	require.NotNil(t, el)
	assert.Equal(t, "shown-email", el.Attr("id"), "visible match preferred on the first pass")

	onlyHidden := memdom.MustParse(`
		<label for="e" hidden>Email</label>
		<input id="e" hidden>`)
	el = NewResolver(onlyHidden, nil).Resolve(nil, Field("email", "a@b.com", "Email"))
	require.NotNil(t, el, "hidden match accepted on the fallback pass")
	assert.Equal(t, "e", el.Attr("id"))
}

func TestResolveDeterminism(t *testing.T) {
	doc := memdom.MustParse(`
		<label for="email">Email</label>
		<input id="email">
		<input name="email">`)
	r := NewResolver(doc, nil)
	d := Field("email", "a@b.com", "Email")

	first := r.Resolve(nil, d)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		assert.True(t, dom.SameElement(first, r.Resolve(nil, d)))
	}
}

func TestResolveNotFound(t *testing.T) {
	el := resolveIn(t, `<input id="other">`, Field("email", "a@b.com", "Email"))
	assert.Nil(t, el)
}

func TestRadioResolution(t *testing.T) {
	doc := memdom.MustParse(`
		<fieldset class="question">
			<legend>Are you authorized to work?</legend>
			<input type="radio" name="auth" id="auth-yes" value="yes-val">
			<label for="auth-yes">Yes, I am authorized</label>
			<input type="radio" name="auth" id="auth-no" value="no-val">
			<label for="auth-no">No</label>
		</fieldset>`)
	r := NewResolver(doc, nil)

	member := r.ResolveRadioMember(nil, "Are you authorized to work?")
	require.NotNil(t, member)

	group := r.RadioGroup(member)
	require.Len(t, group, 2)

	assert.Equal(t, "Yes, I am authorized", r.RadioLabel(group[0]))
	assert.Equal(t, "No", r.RadioLabel(group[1]))
}

func TestRadioLabelFallbackChain(t *testing.T) {
	doc := memdom.MustParse(`
		<div>
			<label><input type="radio" name="g" value="a">Enclosed option</label>
			<input type="radio" name="g" value="b"><span>Sibling option</span>
			<input type="radio" name="g" value="c" aria-label="Aria option">
			<input type="radio" name="g" value="raw-value">
		</div>`)
	r := NewResolver(doc, nil)

	group := doc.QueryAll(`input[type="radio"]`)
	require.Len(t, group, 4)

	assert.Equal(t, "Enclosed option", r.RadioLabel(group[0]))
	assert.Equal(t, "Sibling option", r.RadioLabel(group[1]))
	assert.Equal(t, "Aria option", r.RadioLabel(group[2]))
	assert.Equal(t, "raw-value", r.RadioLabel(group[3]))
}

func TestRadioGroupByAncestorWhenUnnamed(t *testing.T) {
	doc := memdom.MustParse(`
		<div class="choices">
			<input type="radio" value="a">
			<input type="radio" value="b">
		</div>`)
	r := NewResolver(doc, nil)

	member := doc.Query(`input[value="a"]`)
	require.NotNil(t, member)
	assert.Len(t, r.RadioGroup(member), 2)
}
