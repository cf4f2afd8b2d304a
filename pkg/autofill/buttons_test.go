package autofill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autoapply/pkg/dom/memdom"
)

func TestFindByTextExactBeforeSubstring(t *testing.T) {
	doc := memdom.MustParse(`
		<button id="long">Continue to next step</button>
		<button id="exact">Next</button>`)
	b := NewButtons(doc, nil)

	el := b.FindByText("next")
	require.NotNil(t, el)
	assert.Equal(t, "exact", el.Attr("id"), "exact match wins over substring")

	el = b.FindByText("continue")
	require.NotNil(t, el)
	assert.Equal(t, "long", el.Attr("id"))
}

func TestFindByTextAccessibleLabel(t *testing.T) {
	doc := memdom.MustParse(`
		<button id="icon" aria-label="Submit application"></button>
		<input type="submit" id="native" value="Send">`)
	b := NewButtons(doc, nil)

	el := b.FindByText("submit application")
	require.NotNil(t, el)
	assert.Equal(t, "icon", el.Attr("id"))

	el = b.FindByText("send")
	require.NotNil(t, el)
	assert.Equal(t, "native", el.Attr("id"))
}

func TestFindByTextSkipsInvisible(t *testing.T) {
	doc := memdom.MustParse(`
		<button style="display:none">Next</button>
		<div role="button" id="shown">Next</div>`)
	b := NewButtons(doc, nil)

	el := b.FindByText("Next")
	require.NotNil(t, el)
	assert.Equal(t, "shown", el.Attr("id"))
}

func TestIsClickable(t *testing.T) {
	doc := memdom.MustParse(`
		<button id="ok">Go</button>
		<button id="disabled" disabled>Go</button>
		<button id="aria" aria-disabled="true">Go</button>
		<button id="spinner" class="btn btn-spinner">Go</button>
		<button id="loading" class="is-loading">Go</button>
		<button id="hidden" hidden>Go</button>`)
	b := NewButtons(doc, nil)

	assert.True(t, b.IsClickable(doc.Query("#ok")))
	assert.False(t, b.IsClickable(doc.Query("#disabled")))
	assert.False(t, b.IsClickable(doc.Query("#aria")))
	assert.False(t, b.IsClickable(doc.Query("#spinner")))
	assert.False(t, b.IsClickable(doc.Query("#loading")))
	assert.False(t, b.IsClickable(doc.Query("#hidden")))
	assert.False(t, b.IsClickable(nil))
}

func TestSafeClickPointerSequence(t *testing.T) {
	doc := memdom.MustParse(`<button id="go">Go</button>`)
	b := NewButtons(doc, nil)

	el := doc.Query("#go")
	var events []string
	for _, ev := range []string{"focus", "pointerdown", "pointerup", "click"} {
		ev := ev
		doc.On(el, ev, func() { events = append(events, ev) })
	}

	require.NoError(t, b.SafeClick(context.Background(), el))
	assert.Equal(t, []string{"focus", "pointerdown", "pointerup", "click"}, events)
}

func TestSafeClickRejectsUnclickable(t *testing.T) {
	doc := memdom.MustParse(`<button id="go" disabled>Go</button>`)
	b := NewButtons(doc, nil)

	err := b.SafeClick(context.Background(), doc.Query("#go"))
	assert.ErrorIs(t, err, ErrNotClickable)
}

func TestFindAndClick(t *testing.T) {
	doc := memdom.MustParse(`<button id="next">Next</button>`)
	b := NewButtons(doc, nil)

	var clicked bool
	doc.On(doc.Query("#next"), "click", func() { clicked = true })

	found, err := b.FindAndClick(context.Background(), "next")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, clicked)

	found, err = b.FindAndClick(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}
