package autofill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/logging"
)

const (
	// widgetPrefixMax bounds how much of a value is typed into a custom
	// widget's embedded search box.
	widgetPrefixMax = 30

	defaultWidgetPollAttempts = 40
	defaultWidgetPollInterval = 50 * time.Millisecond

	// widgetOptionSelector matches option nodes of framework-rendered
	// choice widgets. They may render detached from the widget's own
	// container, so the poll searches the whole document.
	widgetOptionSelector = `[role="option"], li[class*="option"], div[class*="option"]`
)

// InjectResult classifies the outcome of a single injection.
type InjectResult int

const (
	// Injected means the value was set now.
	Injected InjectResult = iota

	// AlreadySet means the control already held the target value and
	// was left untouched.
	AlreadySet

	// Queued means the control is a custom widget; the injection runs
	// when Flush is called at the end of the fill pass.
	Queued

	// Rejected means no option matched or the control refused the
	// value.
	Rejected
)

// WidgetOutcome is the resolution of one queued custom-widget injection.
type WidgetOutcome struct {
	Control dom.Element
	Value   string
	OK      bool
}

type widgetJob struct {
	el    dom.Element
	value string
}

// Injector writes values into controls in a framework-compatible way:
// native setters to defeat controlled-component shadowing, followed by
// the event sequence intermediate frameworks listen for.
type Injector struct {
	doc dom.Document
	res *Resolver
	log *logging.Logger

	// PollAttempts and PollInterval bound the wait for custom-widget
	// option nodes to render.
	PollAttempts int
	PollInterval time.Duration

	queue []widgetJob
}

// NewInjector creates an injector sharing the resolver's document view.
// The logger may be nil.
func NewInjector(doc dom.Document, res *Resolver, log *logging.Logger) *Injector {
	return &Injector{
		doc:          doc,
		res:          res,
		log:          log,
		PollAttempts: defaultWidgetPollAttempts,
		PollInterval: defaultWidgetPollInterval,
	}
}

// Inject routes a value to the control-type-specific injection path.
// Custom widgets are queued rather than handled inline; call Flush at
// the end of the fill pass.
func (in *Injector) Inject(ctx context.Context, el dom.Element, value string) (InjectResult, error) {
	if el == nil {
		return Rejected, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return Rejected, err
	}

	switch {
	case el.Tag() == "select":
		return in.injectSelect(el, value)
	case isInputType(el, "checkbox"):
		return in.injectCheckbox(el, value)
	case isInputType(el, "radio"):
		return in.injectRadio(el, value)
	case isInputType(el, "file"):
		return Rejected, fmt.Errorf("file inputs take InjectFile, not Inject")
	case el.Tag() == "input" || el.Tag() == "textarea" || strings.EqualFold(el.Attr("contenteditable"), "true"):
		return in.injectText(el, value)
	default:
		in.queue = append(in.queue, widgetJob{el: el, value: value})
		debugf(in.log, "queued custom widget %s for %q", el.Key(), value)
		return Queued, nil
	}
}

// InjectFile assigns an upload to a file input and emits change and
// input.
func (in *Injector) InjectFile(ctx context.Context, el dom.Element, f dom.FileUpload) error {
	if el == nil {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := el.SetFiles(f); err != nil {
		return fmt.Errorf("assign file %q: %w", f.Name, err)
	}
	if err := el.Dispatch("change"); err != nil {
		return err
	}
	return el.Dispatch("input")
}

// Flush runs every queued custom-widget injection and empties the queue.
// Widget interactions are inherently asynchronous (options render after
// open), so they are deferred to the end of the fill pass where they
// cannot block synchronous fields.
func (in *Injector) Flush(ctx context.Context) []WidgetOutcome {
	jobs := in.queue
	in.queue = nil
	if len(jobs) == 0 {
		return nil
	}

	out := make([]WidgetOutcome, 0, len(jobs))
	for _, job := range jobs {
		ok := in.fillWidget(ctx, job.el, job.value)
		if !ok {
			// Fall back to plain text injection into the widget's
			// search box, if it has one.
			if box := in.widgetSearchBox(job.el); box != nil {
				if res, err := in.injectText(box, job.value); err == nil && res != Rejected {
					ok = true
				}
			}
		}
		out = append(out, WidgetOutcome{Control: job.el, Value: job.value, OK: ok})
	}
	return out
}

// injectText sets a text control. Idempotent: a control already holding
// the target value is left alone. The input, change, blur order matters:
// intermediate frameworks listen on input/change and finalize on blur.
func (in *Injector) injectText(el dom.Element, value string) (InjectResult, error) {
	if el.Value() == value {
		return AlreadySet, nil
	}
	if err := el.Focus(); err != nil {
		return Rejected, err
	}
	if err := el.SetValue(value); err != nil {
		return Rejected, fmt.Errorf("set value: %w", err)
	}
	for _, event := range []string{"input", "change"} {
		if err := el.Dispatch(event); err != nil {
			return Rejected, err
		}
	}
	if err := el.Blur(); err != nil {
		return Rejected, err
	}
	return Injected, nil
}

// injectSelect applies the three-pass text match to option labels, then
// option values.
func (in *Injector) injectSelect(el dom.Element, value string) (InjectResult, error) {
	opts := el.Options()
	if len(opts) == 0 {
		return Rejected, fmt.Errorf("select has no options")
	}

	labels := make([]string, len(opts))
	values := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
		values[i] = o.Value
	}

	idx := MatchText(value, labels)
	if idx < 0 {
		idx = MatchText(value, values)
	}
	if idx < 0 {
		return Rejected, fmt.Errorf("no option matches %q", value)
	}
	if el.Value() == opts[idx].Value {
		return AlreadySet, nil
	}
	if err := el.SetValue(opts[idx].Value); err != nil {
		return Rejected, err
	}
	if err := el.Dispatch("change"); err != nil {
		return Rejected, err
	}
	return Injected, nil
}

// injectCheckbox toggles only when the current state differs from the
// target, through a simulated activation so framework handlers fire.
func (in *Injector) injectCheckbox(el dom.Element, value string) (InjectResult, error) {
	target := true
	if boolPrefix(normalize(value)) == "no" {
		target = false
	}
	if el.Checked() == target {
		return AlreadySet, nil
	}
	if err := el.Click(); err != nil {
		return Rejected, err
	}
	return Injected, nil
}

// injectRadio derives the full group from the resolved member, builds a
// label for every member, matches the value against them and activates
// the matched member only.
func (in *Injector) injectRadio(member dom.Element, value string) (InjectResult, error) {
	group := in.res.RadioGroup(member)
	labels := make([]string, len(group))
	for i, m := range group {
		labels[i] = in.res.RadioLabel(m)
	}

	idx := MatchText(value, labels)
	if idx < 0 {
		return Rejected, fmt.Errorf("no radio option matches %q among %d members", value, len(group))
	}

	target := group[idx]
	if target.Checked() {
		return AlreadySet, nil
	}
	if err := target.Click(); err != nil {
		return Rejected, err
	}
	if err := target.Dispatch("change"); err != nil {
		return Rejected, err
	}
	return Injected, nil
}

// fillWidget drives a framework-rendered choice widget: open it with a
// pointer sequence, type a bounded prefix into any embedded search box,
// poll for option nodes anywhere in the document, and activate the
// matched option. Dismisses with Escape on no match.
func (in *Injector) fillWidget(ctx context.Context, el dom.Element, value string) bool {
	_ = el.ScrollIntoView()
	if err := el.Click(); err != nil {
		debugf(in.log, "widget open failed: %v", err)
		return false
	}

	if box := in.widgetSearchBox(el); box != nil {
		prefix := value
		if runes := []rune(prefix); len(runes) > widgetPrefixMax {
			prefix = string(runes[:widgetPrefixMax])
		}
		if err := box.SetValue(prefix); err == nil {
			_ = box.Dispatch("input")
			_ = box.Dispatch("change")
		}
	}

	for attempt := 0; attempt < in.PollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			break
		}
		options := in.visibleWidgetOptions()
		if len(options) > 0 {
			labels := make([]string, len(options))
			for i, o := range options {
				labels[i] = o.Text()
			}
			if idx := MatchText(value, labels); idx >= 0 {
				opt := options[idx]
				_ = opt.ScrollIntoView()
				if err := opt.Click(); err == nil {
					return true
				}
			}
		}
		if !sleepCtx(ctx, in.PollInterval) {
			break
		}
	}

	_ = el.Press("Escape")
	debugf(in.log, "widget %s: no option matched %q", el.Key(), value)
	return false
}

// widgetSearchBox finds the text input embedded in (or serving as) a
// custom widget's control surface.
func (in *Injector) widgetSearchBox(el dom.Element) dom.Element {
	if el.Tag() == "input" {
		return el
	}
	if box := el.Query(`input:not([type="hidden"])`); box != nil {
		return box
	}
	if parent := el.Parent(); parent != nil {
		return parent.Query(`input:not([type="hidden"])`)
	}
	return nil
}

func (in *Injector) visibleWidgetOptions() []dom.Element {
	var out []dom.Element
	for _, el := range in.doc.QueryAll(widgetOptionSelector) {
		if el.Visible() {
			out = append(out, el)
		}
	}
	return out
}

func isInputType(el dom.Element, t string) bool {
	return el.Tag() == "input" && strings.EqualFold(el.Attr("type"), t)
}

// sleepCtx sleeps for d or until the context is done, reporting whether
// the full sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
