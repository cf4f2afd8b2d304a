package autofill

// Status is one progress message emitted after every phase transition of
// a run.
type Status struct {
	Message          string
	Err              bool
	Step             int
	Filled           int
	AwaitingSubmit   bool
	ValidationErrors bool
}

// StatusFunc consumes progress messages. Implementations must not block;
// the orchestrator calls them synchronously between phases.
type StatusFunc func(Status)
