// Package memdom implements dom.Document over an in-memory HTML tree
// parsed with golang.org/x/net/html. Selectors are evaluated with
// cascadia. The package exists for dry-runs and tests: it supports
// scripted event handlers and structural mutation with subscriber
// notification, so multi-step form behavior can be simulated without a
// browser.
package memdom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/entrhq/autoapply/pkg/dom"
)

// Document is an in-memory dom.Document.
type Document struct {
	mu   sync.Mutex
	root *html.Node

	keys    map[*html.Node]string
	nextKey int

	values  map[*html.Node]string
	checked map[*html.Node]bool
	files   map[*html.Node]dom.FileUpload
	focused *html.Node

	handlers map[*html.Node]map[string][]func()

	subs    map[int]func()
	nextSub int
}

// Parse builds a Document from an HTML string. Fragments are accepted;
// the parser wraps them in html/head/body as a browser would.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		root:     root,
		keys:     make(map[*html.Node]string),
		values:   make(map[*html.Node]string),
		checked:  make(map[*html.Node]bool),
		files:    make(map[*html.Node]dom.FileUpload),
		handlers: make(map[*html.Node]map[string][]func()),
		subs:     make(map[int]func()),
	}, nil
}

// MustParse is Parse that panics on error, for test fixtures.
func MustParse(src string) *Document {
	d, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return d
}

// Root implements dom.Document.
func (d *Document) Root() dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := findFirstElement(d.root)
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

// Query implements dom.Document.
func (d *Document) Query(selector string) dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queryLocked(d.root, selector)
}

// QueryAll implements dom.Document.
func (d *Document) QueryAll(selector string) []dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queryAllLocked(d.root, selector)
}

// Subscribe implements dom.Document.
func (d *Document) Subscribe(fn func()) func() {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// On registers a scripted handler for an event on an element. Events are
// the names passed to Dispatch plus the synthetic names fired by Click
// (pointerdown, pointerup, click) and Press ("key:<name>", e.g.
// "key:Escape"). Handlers run after the element's default action.
func (d *Document) On(el dom.Element, event string, fn func()) {
	me, ok := el.(*element)
	if !ok || me == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.handlers[me.n]
	if m == nil {
		m = make(map[string][]func())
		d.handlers[me.n] = m
	}
	m[event] = append(m[event], fn)
}

// AppendHTML parses a fragment and appends its nodes as children of the
// first element matching the selector. Subscribers are notified.
func (d *Document) AppendHTML(selector, fragment string) error {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return err
	}

	d.mu.Lock()
	target := d.findLocked(d.root, selector)
	if target == nil {
		d.mu.Unlock()
		return fmt.Errorf("append target %q not found", selector)
	}
	for _, n := range nodes {
		target.AppendChild(n)
	}
	subs := d.snapshotSubsLocked()
	d.mu.Unlock()

	notify(subs)
	return nil
}

// Remove detaches every element matching the selector from the tree.
// Subscribers are notified if anything was removed.
func (d *Document) Remove(selector string) {
	d.mu.Lock()
	matches := d.findAllLocked(d.root, selector)
	for _, n := range matches {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	var subs []func()
	if len(matches) > 0 {
		subs = d.snapshotSubsLocked()
	}
	d.mu.Unlock()

	notify(subs)
}

// SetAttr sets an attribute on every element matching the selector and
// notifies subscribers.
func (d *Document) SetAttr(selector, name, value string) {
	d.mu.Lock()
	matches := d.findAllLocked(d.root, selector)
	for _, n := range matches {
		setAttr(n, name, value)
	}
	var subs []func()
	if len(matches) > 0 {
		subs = d.snapshotSubsLocked()
	}
	d.mu.Unlock()

	notify(subs)
}

// Touch notifies subscribers without changing the tree, simulating a
// mutation the engine does not otherwise model.
func (d *Document) Touch() {
	d.mu.Lock()
	subs := d.snapshotSubsLocked()
	d.mu.Unlock()
	notify(subs)
}

// wrap returns the element handle for a node, assigning a key on first use.
// Caller must hold d.mu.
func (d *Document) wrap(n *html.Node) *element {
	if _, ok := d.keys[n]; !ok {
		d.nextKey++
		d.keys[n] = fmt.Sprintf("n%d", d.nextKey)
	}
	return &element{d: d, n: n}
}

func (d *Document) queryLocked(scope *html.Node, selector string) dom.Element {
	n := d.findLocked(scope, selector)
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

func (d *Document) queryAllLocked(scope *html.Node, selector string) []dom.Element {
	nodes := d.findAllLocked(scope, selector)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.wrap(n))
	}
	return out
}

func (d *Document) findLocked(scope *html.Node, selector string) *html.Node {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	var found *html.Node
	walkElements(scope, func(n *html.Node) bool {
		if n != scope && m.Match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func (d *Document) findAllLocked(scope *html.Node, selector string) []*html.Node {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	var out []*html.Node
	walkElements(scope, func(n *html.Node) bool {
		if n != scope && m.Match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (d *Document) snapshotSubsLocked() []func() {
	out := make([]func(), 0, len(d.subs))
	for _, fn := range d.subs {
		out = append(out, fn)
	}
	return out
}

// fire runs the scripted handlers for an event. Must be called without
// holding d.mu; handlers may mutate the document.
func (d *Document) fire(n *html.Node, event string) {
	d.mu.Lock()
	var fns []func()
	if m := d.handlers[n]; m != nil {
		fns = append(fns, m[event]...)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}

// walkElements visits element nodes in document order, starting at (and
// including) scope. Returning false from the visitor stops the walk.
func walkElements(scope *html.Node, visit func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && !visit(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(scope)
}

func findFirstElement(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirstElement(c); found != nil {
			return found
		}
	}
	return nil
}

func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
