package pwdom

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/logging"
)

// mutationBinding is the page-side hook the mutation observer calls.
const mutationBinding = "__autoapplyMutated"

// observerScript installs one MutationObserver for the whole document.
// Idempotent across calls and page transitions.
const observerScript = `() => {
	if (window.__autoapplyObserver) { return; }
	const notify = () => { if (window.` + mutationBinding + `) { window.` + mutationBinding + `(); } };
	const obs = new MutationObserver(notify);
	obs.observe(document.documentElement, {
		subtree: true, childList: true, attributes: true, characterData: true,
	});
	window.__autoapplyObserver = obs;
}`

// keyScript assigns a stable per-node identity without touching the
// DOM: a WeakMap keeps framework mutation observers quiet.
const keyScript = `el => {
	const w = window;
	if (!w.__autoapplyKeys) { w.__autoapplyKeys = new WeakMap(); w.__autoapplySeq = 0; }
	let k = w.__autoapplyKeys.get(el);
	if (!k) { k = 'pw-' + (++w.__autoapplySeq); w.__autoapplyKeys.set(el, k); }
	return k;
}`

// Document implements dom.Document over a live page.
type Document struct {
	page playwright.Page
	log  *logging.Logger

	mu      sync.Mutex
	subs    map[int]func()
	nextSub int
}

// NewDocument binds a document to an already-navigated page and wires
// the mutation observer into Go-side subscriptions.
func NewDocument(page playwright.Page, log *logging.Logger) (*Document, error) {
	d := &Document{page: page, log: log, subs: make(map[int]func())}

	if err := page.ExposeFunction(mutationBinding, func(args ...interface{}) interface{} {
		d.notify()
		return nil
	}); err != nil {
		return nil, fmt.Errorf("expose mutation binding: %w", err)
	}
	// Reinstall the observer after every navigation as well as now.
	if err := page.AddInitScript(playwright.Script{Content: playwright.String("(" + observerScript + ")()")}); err != nil {
		return nil, fmt.Errorf("register observer init script: %w", err)
	}
	if _, err := page.Evaluate(observerScript); err != nil {
		return nil, fmt.Errorf("install mutation observer: %w", err)
	}
	return d, nil
}

// Root returns the page's html element.
func (d *Document) Root() dom.Element {
	return d.Query("html")
}

// Query returns the first match in the page, or nil.
func (d *Document) Query(selector string) dom.Element {
	h, err := d.page.QuerySelector(selector)
	if err != nil || h == nil {
		return nil
	}
	return &element{d: d, h: h}
}

// QueryAll returns every match in document order.
func (d *Document) QueryAll(selector string) []dom.Element {
	handles, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	out := make([]dom.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &element{d: d, h: h})
	}
	return out
}

// Subscribe registers a mutation callback. The returned function
// unsubscribes and is safe to call more than once.
func (d *Document) Subscribe(fn func()) func() {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// notify fans a page mutation out to subscribers. Callbacks run outside
// the lock; they may subscribe or unsubscribe.
func (d *Document) notify() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
