package autofill

import "errors"

var (
	// ErrNotFound means every resolution strategy was exhausted for a
	// descriptor. It is recovered locally: the descriptor is skipped.
	ErrNotFound = errors.New("control not found")

	// ErrNotClickable means a navigation control exists but is disabled
	// or hidden, so no progress is possible.
	ErrNotClickable = errors.New("navigation control not clickable")

	// ErrValidationBlocked means visible validation errors remained
	// after a fill pass and the page refused to advance. Reported
	// distinctly from timeouts so the caller can prompt a human to fix
	// inputs.
	ErrValidationBlocked = errors.New("validation errors block progress")

	// ErrTransitionTimeout means the tree never went quiet after a
	// navigation click.
	ErrTransitionTimeout = errors.New("page transition timed out")

	// ErrUpstreamDataMissing means no profile or resume data was
	// available; the run fails before the loop starts.
	ErrUpstreamDataMissing = errors.New("no profile data to fill from")

	// ErrRunActive means a run is already in progress. A second
	// invocation is rejected outright, not queued.
	ErrRunActive = errors.New("a run is already active")

	// ErrNoSubmitPending means ConfirmSubmit was called without a
	// pending submit control.
	ErrNoSubmitPending = errors.New("no submit control awaiting confirmation")
)
