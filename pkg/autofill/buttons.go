package autofill

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/logging"
)

// buttonSelector matches every element the locator treats as an action
// control.
const buttonSelector = `button, [role="button"], input[type="submit"], input[type="button"], a[class*="btn"], a[class*="button"]`

// busyClassMarkers are class fragments signaling a loading or disabled
// state that the attribute checks miss.
var busyClassMarkers = []string{"loading", "disabled", "spinner", "busy"}

// Buttons discovers and safely activates action controls by their text
// or accessible label.
type Buttons struct {
	doc dom.Document
	log *logging.Logger
}

// NewButtons creates a button locator. The logger may be nil.
func NewButtons(doc dom.Document, log *logging.Logger) *Buttons {
	return &Buttons{doc: doc, log: log}
}

// FindByText scans visible action controls and returns the first whose
// text or accessible label matches one of the wanted texts: exact match
// first across all candidates, substring match second.
func (b *Buttons) FindByText(texts ...string) dom.Element {
	candidates := b.visibleButtons()
	if len(candidates) == 0 {
		return nil
	}

	for _, want := range texts {
		w := normalizeLabel(want)
		for _, el := range candidates {
			if normalizeLabel(buttonText(el)) == w {
				return el
			}
		}
	}
	for _, want := range texts {
		w := normalizeLabel(want)
		if w == "" {
			continue
		}
		for _, el := range candidates {
			if strings.Contains(normalizeLabel(buttonText(el)), w) {
				return el
			}
		}
	}
	return nil
}

// FindBySelectors returns the first visible match for any of the raw
// selector hints.
func (b *Buttons) FindBySelectors(selectors ...string) dom.Element {
	for _, sel := range selectors {
		for _, el := range b.doc.QueryAll(sel) {
			if el.Visible() {
				return el
			}
		}
	}
	return nil
}

// IsClickable reports whether activating the control can succeed: it
// must be visible, not disabled, not aria-disabled, and its class must
// not signal a loading/disabled/spinner state.
func (b *Buttons) IsClickable(el dom.Element) bool {
	if el == nil || !el.Visible() || !el.Enabled() {
		return false
	}
	class := strings.ToLower(el.Attr("class"))
	for _, marker := range busyClassMarkers {
		if strings.Contains(class, marker) {
			return false
		}
	}
	return true
}

// SafeClick scrolls the control into view, focuses it and performs the
// full pointer sequence. Some frameworks bind to pointer events rather
// than semantic click.
func (b *Buttons) SafeClick(ctx context.Context, el dom.Element) error {
	if el == nil {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.IsClickable(el) {
		return fmt.Errorf("%w: %q", ErrNotClickable, buttonText(el))
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	debugf(b.log, "clicked %q", buttonText(el))
	return nil
}

// FindAndClick finds a clickable control by text and activates it,
// reporting whether one was found. A found but unclickable control is an
// error, not a miss.
func (b *Buttons) FindAndClick(ctx context.Context, texts ...string) (bool, error) {
	el := b.FindByText(texts...)
	if el == nil {
		return false, nil
	}
	if err := b.SafeClick(ctx, el); err != nil {
		return true, err
	}
	return true, nil
}

func (b *Buttons) visibleButtons() []dom.Element {
	var out []dom.Element
	for _, el := range b.doc.QueryAll(buttonSelector) {
		if el.Visible() {
			out = append(out, el)
		}
	}
	return out
}

// buttonText returns the control's visible text, falling back to its
// accessible label, then to an input's value attribute.
func buttonText(el dom.Element) string {
	if text := el.Text(); text != "" {
		return text
	}
	if aria := el.Attr("aria-label"); aria != "" {
		return aria
	}
	return el.Attr("value")
}
