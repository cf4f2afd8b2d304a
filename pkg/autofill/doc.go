// Package autofill is the agentic form-completion engine. It resolves
// semantic field descriptors to concrete controls in an unknown document
// tree, injects values in a framework-compatible way, and drives a
// bounded fill/classify/advance state machine through multi-page
// application flows.
//
// The engine is heuristic: per-field failures are logged and skipped,
// never fatal. The one hard guarantee is submit safety. A control whose
// text implies final submission is reported, never clicked, until
// ConfirmSubmit is called explicitly.
package autofill
