package autofill

import "time"

// StepState is the orchestrator's position in the navigation state
// machine.
type StepState int

const (
	StateOpening StepState = iota
	StateFilling
	StateTransitioning
	StateAwaitingSubmitConfirmation
	StateDone
	StateAborted
	StateFailed
)

var stateNames = map[StepState]string{
	StateOpening:                    "opening",
	StateFilling:                    "filling",
	StateTransitioning:              "transitioning",
	StateAwaitingSubmitConfirmation: "awaiting-submit-confirmation",
	StateDone:                       "done",
	StateAborted:                    "aborted",
	StateFailed:                     "failed",
}

func (s StepState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the state ends the automatic loop.
func (s StepState) Terminal() bool {
	switch s {
	case StateDone, StateAborted, StateFailed, StateAwaitingSubmitConfirmation:
		return true
	default:
		return false
	}
}

// FillRecord is one fill attempt against one control.
type FillRecord struct {
	ControlKey    string
	DescriptorKey string
	OK            bool
}

// LogEntry is one append-only diagnostic line. Entries are never mutated
// after creation.
type LogEntry struct {
	Step   int
	Action string
	Detail string
	Time   time.Time
}

// RunResult is the outcome of one orchestrator run. Partial progress is
// always populated, including on failure.
type RunResult struct {
	State          StepState
	StepsCompleted int
	TotalFilled    int
	AwaitingSubmit bool
	Aborted        bool
	Records        []FillRecord
	Log            []LogEntry
}

// runState is the per-run mutable working set, created at Run and
// discarded at terminal state.
type runState struct {
	result  *RunResult
	touched map[string]bool
	step    int
}

func newRunState() *runState {
	return &runState{
		result:  &RunResult{State: StateOpening},
		touched: make(map[string]bool),
	}
}

// touchedControl reports whether the control identity was already filled
// this run. Idempotence is by identity, not by value.
func (r *runState) touchedControl(key string) bool {
	return r.touched[key]
}

// record marks a control touched and appends its fill record.
func (r *runState) record(controlKey, descriptorKey string, ok bool) {
	r.touched[controlKey] = true
	r.result.Records = append(r.result.Records, FillRecord{
		ControlKey:    controlKey,
		DescriptorKey: descriptorKey,
		OK:            ok,
	})
	if ok {
		r.result.TotalFilled++
	}
}

// resolveQueued upgrades a queued record to success once its widget
// injection resolves at flush time.
func (r *runState) resolveQueued(controlKey string, ok bool) {
	if !ok {
		return
	}
	for i := range r.result.Records {
		rec := &r.result.Records[i]
		if rec.ControlKey == controlKey && !rec.OK {
			rec.OK = true
			r.result.TotalFilled++
			return
		}
	}
}

func (r *runState) log(action, detail string) {
	r.result.Log = append(r.result.Log, LogEntry{
		Step:   r.step,
		Action: action,
		Detail: detail,
		Time:   time.Now(),
	})
}
