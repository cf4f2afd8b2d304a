package autofill

import (
	"context"
	"time"

	"github.com/entrhq/autoapply/pkg/dom"
)

const (
	waitPollInterval = 50 * time.Millisecond

	// DefaultQuietWindow is how long the tree must go without
	// structural mutation to count as quiescent.
	DefaultQuietWindow = 600 * time.Millisecond

	// DefaultQuietCap is the hard ceiling on quiescence waiting.
	DefaultQuietCap = 12 * time.Second
)

// WaitFor polls until an element matching the selector appears, or the
// timeout elapses. Returns nil on timeout; never hangs.
func WaitFor(ctx context.Context, doc dom.Document, selector string, timeout time.Duration) dom.Element {
	deadline := time.Now().Add(timeout)
	for {
		if el := doc.Query(selector); el != nil {
			return el
		}
		if time.Now().After(deadline) || !sleepCtx(ctx, waitPollInterval) {
			return nil
		}
	}
}

// WaitVisible is WaitFor with the added requirement that the match be
// visible.
func WaitVisible(ctx context.Context, doc dom.Document, selector string, timeout time.Duration) dom.Element {
	deadline := time.Now().Add(timeout)
	for {
		for _, el := range doc.QueryAll(selector) {
			if el.Visible() {
				return el
			}
		}
		if time.Now().After(deadline) || !sleepCtx(ctx, waitPollInterval) {
			return nil
		}
	}
}

// WaitGone polls until no element matches the selector, reporting
// whether removal was observed before the timeout.
func WaitGone(ctx context.Context, doc dom.Document, selector string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if doc.Query(selector) == nil {
			return true
		}
		if time.Now().After(deadline) || !sleepCtx(ctx, waitPollInterval) {
			return false
		}
	}
}

// WaitQuiet resolves true once the tree produces no structural mutation
// for the quiet window, false when the hard cap elapses first. The
// mutation subscription is tied to this call's lifetime and released on
// every return path. Cancellation is advisory: the wait resolves rather
// than hangs regardless of signal state.
func WaitQuiet(ctx context.Context, doc dom.Document, quiet, cap time.Duration) bool {
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	if cap <= 0 {
		cap = DefaultQuietCap
	}

	mutated := make(chan struct{}, 1)
	unsubscribe := doc.Subscribe(func() {
		select {
		case mutated <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	hardCap := time.NewTimer(cap)
	defer hardCap.Stop()
	quietTimer := time.NewTimer(quiet)
	defer quietTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-hardCap.C:
			return false
		case <-mutated:
			if !quietTimer.Stop() {
				select {
				case <-quietTimer.C:
				default:
				}
			}
			quietTimer.Reset(quiet)
		case <-quietTimer.C:
			return true
		}
	}
}

// Settle sleeps for a fixed delay, returning early only on context
// cancellation.
func Settle(ctx context.Context, d time.Duration) {
	if d > 0 {
		sleepCtx(ctx, d)
	}
}
