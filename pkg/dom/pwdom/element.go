package pwdom

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autoapply/pkg/dom"
)

// setValueScript writes through the platform's native value setter so
// framework-controlled inputs (React, Vue) observe the change when the
// caller dispatches input afterwards. Fires no events itself.
const setValueScript = `(el, value) => {
	const tag = el.tagName.toLowerCase();
	if (tag === 'select') {
		for (const o of el.options) { o.selected = (o.value === value); }
		el.value = value;
		return;
	}
	if (el.isContentEditable) {
		el.textContent = value;
		return;
	}
	const proto = tag === 'textarea'
		? window.HTMLTextAreaElement.prototype
		: window.HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) { desc.set.call(el, value); } else { el.value = value; }
}`

const optionsScript = `el => {
	if (el.tagName.toLowerCase() !== 'select') { return null; }
	return Array.from(el.options).map(o => ({
		value: o.value,
		label: (o.label || o.textContent || '').trim(),
	}));
}`

// element wraps a Playwright element handle. Read accessors swallow
// errors into zero values; a stale handle reads as empty and invisible.
type element struct {
	d   *Document
	h   playwright.ElementHandle
	key string
}

func (e *element) Key() string {
	if e.key == "" {
		if v, err := e.h.Evaluate(keyScript); err == nil {
			e.key, _ = v.(string)
		}
	}
	return e.key
}

func (e *element) Tag() string {
	v, err := e.h.Evaluate(`el => el.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	tag, _ := v.(string)
	return tag
}

func (e *element) Attr(name string) string {
	v, err := e.h.GetAttribute(name)
	if err != nil {
		return ""
	}
	return v
}

func (e *element) Text() string {
	text, err := e.h.TextContent()
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func (e *element) Value() string {
	v, err := e.h.Evaluate(`el => ('value' in el) ? String(el.value) : ''`)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (e *element) Checked() bool {
	v, err := e.h.Evaluate(`el => !!el.checked`)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (e *element) Visible() bool {
	visible, err := e.h.IsVisible()
	return err == nil && visible
}

func (e *element) Enabled() bool {
	enabled, err := e.h.IsEnabled()
	if err != nil || !enabled {
		return false
	}
	return e.Attr("aria-disabled") != "true"
}

func (e *element) Options() []dom.Option {
	v, err := e.h.Evaluate(optionsScript)
	if err != nil {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]dom.Option, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		value, _ := m["value"].(string)
		label, _ := m["label"].(string)
		out = append(out, dom.Option{Value: value, Label: label})
	}
	return out
}

func (e *element) Parent() dom.Element {
	return e.related(`el => el.parentElement`)
}

func (e *element) NextSibling() dom.Element {
	return e.related(`el => el.nextElementSibling`)
}

func (e *element) Children() []dom.Element {
	return e.QueryAll(":scope > *")
}

func (e *element) Query(selector string) dom.Element {
	h, err := e.h.QuerySelector(selector)
	if err != nil || h == nil {
		return nil
	}
	return &element{d: e.d, h: h}
}

func (e *element) QueryAll(selector string) []dom.Element {
	handles, err := e.h.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	out := make([]dom.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &element{d: e.d, h: h})
	}
	return out
}

func (e *element) Focus() error {
	if err := e.h.Focus(); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	return nil
}

func (e *element) Blur() error {
	if _, err := e.h.Evaluate(`el => el.blur()`); err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	return nil
}

// Click relies on Playwright's input pipeline, which performs the full
// pointer sequence (pointerdown, pointerup, click) like a real user.
func (e *element) Click() error {
	if err := e.h.Click(); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (e *element) SetValue(value string) error {
	if _, err := e.h.Evaluate(setValueScript, value); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

func (e *element) SetFiles(f dom.FileUpload) error {
	err := e.h.SetInputFiles([]playwright.InputFile{{
		Name:     f.Name,
		MimeType: f.MIME,
		Buffer:   f.Data,
	}})
	if err != nil {
		return fmt.Errorf("set files: %w", err)
	}
	return nil
}

func (e *element) Dispatch(event string) error {
	if key, ok := strings.CutPrefix(event, "key:"); ok {
		return e.Press(key)
	}
	if err := e.h.DispatchEvent(event); err != nil {
		return fmt.Errorf("dispatch %s: %w", event, err)
	}
	return nil
}

func (e *element) Press(key string) error {
	if err := e.h.Press(key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

func (e *element) ScrollIntoView() error {
	if err := e.h.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return nil
}

func (e *element) related(script string) dom.Element {
	jh, err := e.h.EvaluateHandle(script)
	if err != nil || jh == nil {
		return nil
	}
	h := jh.AsElement()
	if h == nil {
		return nil
	}
	return &element{d: e.d, h: h}
}
