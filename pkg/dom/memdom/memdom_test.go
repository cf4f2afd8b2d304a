package memdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autoapply/pkg/dom"
)

func TestQuery(t *testing.T) {
	doc := MustParse(`
		<div class="form-field">
			<label for="email">Email</label>
			<input type="text" id="email" name="email">
		</div>`)

	el := doc.Query("#email")
	require.NotNil(t, el)
	assert.Equal(t, "input", el.Tag())
	assert.Equal(t, "email", el.Attr("name"))

	assert.Nil(t, doc.Query("#missing"))
	assert.Len(t, doc.QueryAll("label, input"), 2)
}

func TestElementIdentity(t *testing.T) {
	doc := MustParse(`<input id="a"><input id="b">`)

	a1 := doc.Query("#a")
	a2 := doc.Query("#a")
	b := doc.Query("#b")

	assert.True(t, dom.SameElement(a1, a2))
	assert.False(t, dom.SameElement(a1, b))
	assert.NotEqual(t, a1.Key(), b.Key())
}

func TestVisibility(t *testing.T) {
	doc := MustParse(`
		<div style="display: none"><input id="hidden-parent"></div>
		<input id="hidden-type" type="hidden">
		<input id="hidden-attr" hidden>
		<input id="shown">`)

	assert.False(t, doc.Query("#hidden-parent").Visible())
	assert.False(t, doc.Query("#hidden-type").Visible())
	assert.False(t, doc.Query("#hidden-attr").Visible())
	assert.True(t, doc.Query("#shown").Visible())
}

func TestValueAndSetValue(t *testing.T) {
	doc := MustParse(`
		<input id="text" value="old">
		<select id="sel">
			<option value="">Choose</option>
			<option value="us">United States</option>
		</select>`)

	text := doc.Query("#text")
	assert.Equal(t, "old", text.Value())
	require.NoError(t, text.SetValue("new"))
	assert.Equal(t, "new", text.Value())

	sel := doc.Query("#sel")
	assert.Equal(t, "", sel.Value())
	require.NoError(t, sel.SetValue("us"))
	assert.Equal(t, "us", sel.Value())
	assert.Error(t, sel.SetValue("nope"))

	opts := sel.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, "United States", opts[1].Label)
}

func TestClickTogglesCheckbox(t *testing.T) {
	doc := MustParse(`<input type="checkbox" id="cb">`)

	cb := doc.Query("#cb")
	assert.False(t, cb.Checked())
	require.NoError(t, cb.Click())
	assert.True(t, cb.Checked())
	require.NoError(t, cb.Click())
	assert.False(t, cb.Checked())
}

func TestClickSelectsRadioExclusively(t *testing.T) {
	doc := MustParse(`
		<input type="radio" name="auth" id="yes" value="yes">
		<input type="radio" name="auth" id="no" value="no">`)

	require.NoError(t, doc.Query("#yes").Click())
	assert.True(t, doc.Query("#yes").Checked())
	assert.False(t, doc.Query("#no").Checked())

	require.NoError(t, doc.Query("#no").Click())
	assert.False(t, doc.Query("#yes").Checked())
	assert.True(t, doc.Query("#no").Checked())
}

func TestScriptedHandlers(t *testing.T) {
	doc := MustParse(`<button id="next">Next</button>`)

	var events []string
	btn := doc.Query("#next")
	doc.On(btn, "pointerdown", func() { events = append(events, "pointerdown") })
	doc.On(btn, "click", func() { events = append(events, "click") })

	require.NoError(t, btn.Click())
	assert.Equal(t, []string{"pointerdown", "click"}, events)
}

func TestMutationNotifiesSubscribers(t *testing.T) {
	doc := MustParse(`<div id="container"></div>`)

	var notified int
	unsubscribe := doc.Subscribe(func() { notified++ })

	require.NoError(t, doc.AppendHTML("#container", `<input id="late">`))
	assert.Equal(t, 1, notified)
	require.NotNil(t, doc.Query("#late"))

	doc.Remove("#late")
	assert.Equal(t, 2, notified)
	assert.Nil(t, doc.Query("#late"))

	unsubscribe()
	doc.Touch()
	assert.Equal(t, 2, notified)
}

func TestDetachedElementErrors(t *testing.T) {
	doc := MustParse(`<div id="wrap"><input id="in"></div>`)

	in := doc.Query("#in")
	doc.Remove("#wrap")

	assert.Error(t, in.Click())
	assert.Error(t, in.SetValue("x"))
}

func TestFileUpload(t *testing.T) {
	doc := MustParse(`<input type="file" id="resume">`)

	in := doc.Query("#resume")
	upload := dom.FileUpload{Name: "resume.pdf", MIME: "application/pdf", Data: []byte("%PDF-")}
	require.NoError(t, in.SetFiles(upload))

	got, ok := doc.Upload(in)
	require.True(t, ok)
	assert.Equal(t, "resume.pdf", got.Name)
	assert.Equal(t, "resume.pdf", in.Value())
}

func TestTextCollapsesWhitespace(t *testing.T) {
	doc := MustParse("<label id=\"l\">\n  Current \t company\n</label>")
	assert.Equal(t, "Current company", doc.Query("#l").Text())
}
