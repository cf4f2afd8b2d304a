package autofill

import (
	"time"

	"github.com/entrhq/autoapply/pkg/logging"
)

const (
	// DefaultMaxSteps bounds the fill/classify/advance loop so a run
	// terminates even on a runaway form.
	DefaultMaxSteps = 15

	// DefaultSettleDelay is the pause between a fill pass and
	// classification, allowing field-level validation to run.
	DefaultSettleDelay = 500 * time.Millisecond
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxSteps overrides the step bound.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithSettleDelay overrides the post-fill settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.settleDelay = d }
}

// WithQuietWindow overrides the quiescence quiet window.
func WithQuietWindow(d time.Duration) Option {
	return func(o *Orchestrator) { o.quietWindow = d }
}

// WithTransitionCap overrides the hard ceiling on transition waiting.
func WithTransitionCap(d time.Duration) Option {
	return func(o *Orchestrator) { o.transitionCap = d }
}

// WithStatus sets the sink consuming progress messages.
func WithStatus(fn StatusFunc) Option {
	return func(o *Orchestrator) { o.status = fn }
}

// WithLogger sets the debug logger shared by all engine components.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithAnswerProvider enables the fallback answer provider for questions
// no rule covers.
func WithAnswerProvider(p AnswerProvider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithWidgetPoll overrides the custom-widget option poll bounds.
func WithWidgetPoll(attempts int, interval time.Duration) Option {
	return func(o *Orchestrator) {
		o.widgetPollAttempts = attempts
		o.widgetPollInterval = interval
	}
}
