package autofill

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/logging"
)

// validationMarkerSelector matches the error markers platforms render
// next to rejected fields.
const validationMarkerSelector = `[role="alert"], [aria-invalid="true"], [class*="error"], [class*="invalid"]`

// Orchestrator drives repeated fill/classify/advance cycles over one
// document until a terminal state. Only one run may be active at a time;
// a second invocation is rejected outright.
type Orchestrator struct {
	doc  dom.Document
	plan Plan

	res  *Resolver
	inj  *Injector
	scan *Scanner
	btns *Buttons
	log  *logging.Logger

	maxSteps      int
	settleDelay   time.Duration
	quietWindow   time.Duration
	transitionCap time.Duration
	status        StatusFunc
	provider      AnswerProvider

	widgetPollAttempts int
	widgetPollInterval time.Duration

	running   atomic.Bool
	abortFlag atomic.Bool

	mu            sync.Mutex
	pendingSubmit dom.Element
}

// New creates an orchestrator for one document and plan.
func New(doc dom.Document, plan Plan, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		doc:           doc,
		plan:          plan,
		maxSteps:      DefaultMaxSteps,
		settleDelay:   DefaultSettleDelay,
		quietWindow:   DefaultQuietWindow,
		transitionCap: DefaultQuietCap,
	}
	o.plan.Steps = plan.Steps.withDefaults()
	for _, opt := range opts {
		opt(o)
	}

	o.res = NewResolver(doc, o.log)
	o.inj = NewInjector(doc, o.res, o.log)
	if o.widgetPollAttempts > 0 {
		o.inj.PollAttempts = o.widgetPollAttempts
	}
	if o.widgetPollInterval > 0 {
		o.inj.PollInterval = o.widgetPollInterval
	}
	o.scan = NewScanner(doc, o.res, o.inj, o.log)
	o.scan.Provider = o.provider
	o.btns = NewButtons(doc, o.log)
	return o
}

// Abort requests cooperative cancellation. The flag is checked between
// steps only, never mid-step, so partial counts stay consistent.
func (o *Orchestrator) Abort() {
	o.abortFlag.Store(true)
}

// Run executes the state machine to a terminal state. Partial progress
// is always returned, including alongside a terminal error.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if o.plan.Empty() {
		return nil, ErrUpstreamDataMissing
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	defer o.running.Store(false)

	run := newRunState()
	o.open(ctx, run)

	for step := 1; step <= o.maxSteps; step++ {
		run.step = step
		if o.abortFlag.Load() {
			return o.finish(run, StateAborted, nil)
		}

		run.result.State = StateFilling
		filled := o.fillStep(ctx, run)
		o.emit(run, fmt.Sprintf("step %d: filled %d fields", step, filled), false)

		Settle(ctx, o.settleDelay)

		if submit := o.findSubmit(); submit != nil {
			o.mu.Lock()
			o.pendingSubmit = submit
			o.mu.Unlock()
			run.result.AwaitingSubmit = true
			run.result.StepsCompleted++
			run.log("classify", fmt.Sprintf("submit control %q found, awaiting confirmation", buttonText(submit)))
			return o.finish(run, StateAwaitingSubmitConfirmation, nil)
		}

		next := o.findNext()
		if next == nil {
			run.result.StepsCompleted++
			run.log("classify", "no navigation control, flow complete")
			return o.finish(run, StateDone, nil)
		}
		if !o.btns.IsClickable(next) {
			run.log("classify", fmt.Sprintf("next control %q not clickable", buttonText(next)))
			return o.finish(run, StateFailed, fmt.Errorf("%w: %q", ErrNotClickable, buttonText(next)))
		}

		run.result.State = StateTransitioning
		run.log("advance", fmt.Sprintf("clicking %q", buttonText(next)))
		if err := o.btns.SafeClick(ctx, next); err != nil {
			return o.finish(run, StateFailed, err)
		}
		if !WaitQuiet(ctx, o.doc, o.quietWindow, o.transitionCap) {
			if o.hasValidationErrors() {
				run.log("advance", "validation markers visible after transition failure")
				return o.finish(run, StateFailed, ErrValidationBlocked)
			}
			return o.finish(run, StateFailed, ErrTransitionTimeout)
		}
		run.result.StepsCompleted++
	}

	return o.finish(run, StateFailed, fmt.Errorf("maximum step count (%d) reached", o.maxSteps))
}

// ConfirmSubmit activates the submit control found during
// classification. This is the only path that clicks it: the run itself
// categorically never does.
func (o *Orchestrator) ConfirmSubmit(ctx context.Context) error {
	o.mu.Lock()
	el := o.pendingSubmit
	o.mu.Unlock()
	if el == nil {
		return ErrNoSubmitPending
	}
	if err := o.btns.SafeClick(ctx, el); err != nil {
		return fmt.Errorf("confirm submit: %w", err)
	}
	o.mu.Lock()
	o.pendingSubmit = nil
	o.mu.Unlock()
	debugf(o.log, "submit confirmed and clicked")
	return nil
}

// open clicks the control that opens the application form, when one
// exists. Absence means we are already on the form.
func (o *Orchestrator) open(ctx context.Context, run *runState) {
	run.result.State = StateOpening
	o.emit(run, "locating application form", false)

	el := o.btns.FindBySelectors(o.plan.Steps.OpenSelectors...)
	if el == nil {
		el = o.btns.FindByText(o.plan.Steps.OpenTexts...)
	}
	if el == nil || !o.btns.IsClickable(el) {
		run.log("open", "no open control, assuming form is already present")
		return
	}
	if err := o.btns.SafeClick(ctx, el); err != nil {
		run.log("open", fmt.Sprintf("open click failed: %v", err))
		return
	}
	run.log("open", fmt.Sprintf("clicked %q", buttonText(el)))
	WaitQuiet(ctx, o.doc, o.quietWindow, o.transitionCap)
}

// fillStep runs one complete fill pass: explicit field map, generic
// label scan, resume upload, then the queued custom-widget flush. All
// synchronous injections complete before the flush, so the filled count
// is stable before classification.
func (o *Orchestrator) fillStep(ctx context.Context, run *runState) int {
	container := o.container()
	filled := 0

	for _, d := range o.plan.Descriptors {
		if d.Value == "" {
			continue
		}
		el := o.res.Resolve(container, d)
		if el == nil {
			run.log("resolve", fmt.Sprintf("%s: %v", d.Key, ErrNotFound))
			continue
		}
		if run.touchedControl(el.Key()) {
			continue
		}
		res, err := o.inj.Inject(ctx, el, d.Value)
		switch {
		case err != nil || res == Rejected:
			run.record(el.Key(), d.Key, false)
			run.log("inject", fmt.Sprintf("%s: failed: %v", d.Key, err))
		case res == Queued:
			run.record(el.Key(), d.Key, false)
		default:
			run.record(el.Key(), d.Key, true)
			filled++
		}
	}

	filled += o.scan.Scan(ctx, container, o.plan.Rules, run)
	filled += o.uploadResume(ctx, run, container)

	for _, outcome := range o.inj.Flush(ctx) {
		run.resolveQueued(outcome.Control.Key(), outcome.OK)
		if outcome.OK {
			filled++
			run.log("widget", fmt.Sprintf("filled %q", outcome.Value))
		} else {
			run.log("widget", fmt.Sprintf("no match for %q", outcome.Value))
		}
	}
	return filled
}

func (o *Orchestrator) uploadResume(ctx context.Context, run *runState, container dom.Element) int {
	if o.plan.Resume == nil {
		return 0
	}
	selectors := append(append([]string{}, o.plan.ResumeHints...), `input[type="file"]`)
	var input dom.Element
	for _, sel := range selectors {
		if input = o.queryScoped(container, sel); input != nil {
			break
		}
	}
	if input == nil || run.touchedControl(input.Key()) {
		return 0
	}
	if err := o.inj.InjectFile(ctx, input, *o.plan.Resume); err != nil {
		run.record(input.Key(), "resume", false)
		run.log("resume", fmt.Sprintf("upload failed: %v", err))
		return 0
	}
	run.record(input.Key(), "resume", true)
	run.log("resume", fmt.Sprintf("attached %q", o.plan.Resume.Name))
	return 1
}

// findSubmit applies the submit-first classification rule: a candidate
// is only returned when it is clickable and its own text strongly
// implies finality.
func (o *Orchestrator) findSubmit() dom.Element {
	if el := o.btns.FindBySelectors(o.plan.Steps.SubmitSelectors...); el != nil {
		if impliesFinality(buttonText(el)) && o.btns.IsClickable(el) {
			return el
		}
	}
	if el := o.btns.FindByText(o.plan.Steps.SubmitTexts...); el != nil {
		if impliesFinality(buttonText(el)) && o.btns.IsClickable(el) {
			return el
		}
	}
	return nil
}

func (o *Orchestrator) findNext() dom.Element {
	if el := o.btns.FindBySelectors(o.plan.Steps.NextSelectors...); el != nil {
		return el
	}
	return o.btns.FindByText(o.plan.Steps.NextTexts...)
}

func (o *Orchestrator) hasValidationErrors() bool {
	for _, el := range o.doc.QueryAll(validationMarkerSelector) {
		if el.Visible() {
			return true
		}
	}
	return false
}

func (o *Orchestrator) container() dom.Element {
	if o.plan.Steps.FormSelector != "" {
		if el := o.doc.Query(o.plan.Steps.FormSelector); el != nil {
			return el
		}
	}
	return nil
}

func (o *Orchestrator) queryScoped(container dom.Element, selector string) dom.Element {
	if container != nil {
		if el := container.Query(selector); el != nil {
			return el
		}
	}
	return o.doc.Query(selector)
}

func (o *Orchestrator) finish(run *runState, state StepState, err error) (*RunResult, error) {
	run.result.State = state
	run.result.Aborted = state == StateAborted

	msg := "run " + state.String()
	if err != nil {
		msg = fmt.Sprintf("run %s: %v", state, err)
	}
	run.log("finish", msg)

	if o.status != nil {
		o.status(Status{
			Message:          msg,
			Err:              err != nil,
			Step:             run.step,
			Filled:           run.result.TotalFilled,
			AwaitingSubmit:   run.result.AwaitingSubmit,
			ValidationErrors: errors.Is(err, ErrValidationBlocked),
		})
	}
	return run.result, err
}

func (o *Orchestrator) emit(run *runState, msg string, isErr bool) {
	run.log("status", msg)
	if o.status == nil {
		return
	}
	o.status(Status{
		Message:        msg,
		Err:            isErr,
		Step:           run.step,
		Filled:         run.result.TotalFilled,
		AwaitingSubmit: run.result.AwaitingSubmit,
	})
}
