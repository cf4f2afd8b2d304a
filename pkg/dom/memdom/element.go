package memdom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/autoapply/pkg/dom"
)

// element is the dom.Element handle over a single html.Node.
type element struct {
	d *Document
	n *html.Node
}

func (e *element) Key() string {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	e.d.wrap(e.n)
	return e.d.keys[e.n]
}

func (e *element) Tag() string {
	return strings.ToLower(e.n.Data)
}

func (e *element) Attr(name string) string {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	v, _ := getAttr(e.n, name)
	return v
}

func (e *element) Text() string {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	return collapseSpace(textContent(e.n))
}

func (e *element) Value() string {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if v, ok := e.d.values[e.n]; ok {
		return v
	}
	switch e.Tag() {
	case "textarea":
		return collapseSpace(textContent(e.n))
	case "select":
		for _, opt := range e.optionsLocked() {
			if opt.selected {
				return opt.value
			}
		}
		return ""
	default:
		v, _ := getAttr(e.n, "value")
		return v
	}
}

func (e *element) Checked() bool {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if c, ok := e.d.checked[e.n]; ok {
		return c
	}
	_, has := getAttr(e.n, "checked")
	return has
}

func (e *element) Visible() bool {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	for n := e.n; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hiddenNode(n) {
			return false
		}
	}
	return true
}

func (e *element) Enabled() bool {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if _, has := getAttr(e.n, "disabled"); has {
		return false
	}
	if v, _ := getAttr(e.n, "aria-disabled"); strings.EqualFold(v, "true") {
		return false
	}
	return true
}

type optionNode struct {
	value    string
	label    string
	selected bool
	n        *html.Node
}

// optionsLocked collects option descendants of a select. Caller must hold d.mu.
func (e *element) optionsLocked() []optionNode {
	if e.Tag() != "select" {
		return nil
	}
	var out []optionNode
	walkElements(e.n, func(n *html.Node) bool {
		if strings.EqualFold(n.Data, "option") {
			value, hasValue := getAttr(n, "value")
			label := collapseSpace(textContent(n))
			if !hasValue {
				value = label
			}
			_, selected := getAttr(n, "selected")
			out = append(out, optionNode{value: value, label: label, selected: selected, n: n})
		}
		return true
	})
	return out
}

func (e *element) Options() []dom.Option {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	opts := e.optionsLocked()
	if len(opts) == 0 {
		return nil
	}
	out := make([]dom.Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, dom.Option{Value: o.value, Label: o.label})
	}
	return out
}

func (e *element) Parent() dom.Element {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	for n := e.n.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			return e.d.wrap(n)
		}
	}
	return nil
}

func (e *element) NextSibling() dom.Element {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	for n := e.n.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return e.d.wrap(n)
		}
	}
	return nil
}

func (e *element) Children() []dom.Element {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	var out []dom.Element
	for n := e.n.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			out = append(out, e.d.wrap(n))
		}
	}
	return out
}

func (e *element) Query(selector string) dom.Element {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	return e.d.queryLocked(e.n, selector)
}

func (e *element) QueryAll(selector string) []dom.Element {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	return e.d.queryAllLocked(e.n, selector)
}

func (e *element) Focus() error {
	if err := e.ensureAttached(); err != nil {
		return err
	}
	e.d.mu.Lock()
	e.d.focused = e.n
	e.d.mu.Unlock()
	e.d.fire(e.n, "focus")
	return nil
}

func (e *element) Blur() error {
	if err := e.ensureAttached(); err != nil {
		return err
	}
	e.d.mu.Lock()
	if e.d.focused == e.n {
		e.d.focused = nil
	}
	e.d.mu.Unlock()
	e.d.fire(e.n, "blur")
	return nil
}

func (e *element) Click() error {
	if err := e.ensureAttached(); err != nil {
		return err
	}

	e.d.mu.Lock()
	e.d.focused = e.n
	inputType, _ := getAttr(e.n, "type")
	isCheckbox := strings.EqualFold(e.n.Data, "input") && strings.EqualFold(inputType, "checkbox")
	isRadio := strings.EqualFold(e.n.Data, "input") && strings.EqualFold(inputType, "radio")
	if isCheckbox {
		cur, ok := e.d.checked[e.n]
		if !ok {
			_, cur = getAttr(e.n, "checked")
		}
		e.d.checked[e.n] = !cur
	}
	if isRadio {
		name, _ := getAttr(e.n, "name")
		if name != "" {
			for _, peer := range e.d.findAllLocked(e.d.root, fmt.Sprintf(`input[type="radio"][name=%q]`, name)) {
				e.d.checked[peer] = false
			}
		}
		e.d.checked[e.n] = true
	}
	e.d.mu.Unlock()

	e.d.fire(e.n, "pointerdown")
	e.d.fire(e.n, "pointerup")
	e.d.fire(e.n, "click")
	return nil
}

func (e *element) SetValue(value string) error {
	if err := e.ensureAttached(); err != nil {
		return err
	}
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if e.Tag() == "select" {
		found := false
		for _, opt := range e.optionsLocked() {
			if opt.value == value {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("select has no option with value %q", value)
		}
	}
	e.d.values[e.n] = value
	return nil
}

func (e *element) SetFiles(f dom.FileUpload) error {
	if err := e.ensureAttached(); err != nil {
		return err
	}
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if e.Tag() != "input" {
		return fmt.Errorf("cannot assign files to <%s>", e.Tag())
	}
	e.d.files[e.n] = f
	e.d.values[e.n] = f.Name
	return nil
}

func (e *element) Dispatch(event string) error {
	if err := e.ensureAttached(); err != nil {
		return err
	}
	e.d.fire(e.n, event)
	return nil
}

func (e *element) Press(key string) error {
	if err := e.ensureAttached(); err != nil {
		return err
	}
	e.d.fire(e.n, "key:"+key)
	return nil
}

func (e *element) ScrollIntoView() error {
	return e.ensureAttached()
}

func (e *element) ensureAttached() error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	for n := e.n; n != nil; n = n.Parent {
		if n == e.d.root {
			return nil
		}
	}
	return fmt.Errorf("element <%s> is detached from the document", e.Tag())
}

// Upload returns the file assigned to a file input, for test assertions.
func (d *Document) Upload(el dom.Element) (dom.FileUpload, bool) {
	me, ok := el.(*element)
	if !ok {
		return dom.FileUpload{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.files[me.n]
	return f, ok
}

// Focused returns the element currently holding focus, or nil.
func (d *Document) Focused() dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.focused == nil {
		return nil
	}
	return d.wrap(d.focused)
}

func hiddenNode(n *html.Node) bool {
	if _, has := getAttr(n, "hidden"); has {
		return true
	}
	if t, _ := getAttr(n, "type"); strings.EqualFold(t, "hidden") {
		return true
	}
	if style, _ := getAttr(n, "style"); style != "" {
		s := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden") {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
			return
		}
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
