package autofill

import (
	"context"
	"strings"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/logging"
)

// Rule is one entry of the profile-derived pattern table: lower-cased
// substring patterns mapped to the value to inject.
type Rule struct {
	Patterns []string
	Value    string
}

// MatchRule returns the first rule with a pattern contained in the
// lower-cased label text.
func MatchRule(rules []Rule, labelText string) (Rule, bool) {
	text := strings.ToLower(labelText)
	for _, rule := range rules {
		for _, p := range rule.Patterns {
			if p != "" && strings.Contains(text, strings.ToLower(p)) {
				return rule, true
			}
		}
	}
	return Rule{}, false
}

// AnswerProvider supplies a value for a question no rule covers. An
// empty answer or an error both mean "no rule matched"; the engine never
// fails a run over a provider.
type AnswerProvider interface {
	Answer(ctx context.Context, question string, options []string) (string, error)
}

// Scanner is the generic fallback pass: it matches arbitrary on-page
// question text against the rule table and fills whatever the explicit
// field maps did not cover.
type Scanner struct {
	doc dom.Document
	res *Resolver
	inj *Injector
	log *logging.Logger

	// Provider, when set, answers questions no rule matches. Without
	// one the scanner is fully deterministic.
	Provider AnswerProvider
}

// NewScanner creates a scanner sharing the run's resolver and injector.
// The logger may be nil.
func NewScanner(doc dom.Document, res *Resolver, inj *Injector, log *logging.Logger) *Scanner {
	return &Scanner{doc: doc, res: res, inj: inj, log: log}
}

// Scan walks label-bearing elements in three passes (true labels, then
// pseudo-labels such as legends and class-flagged question text, then
// unlabeled controls matched by placeholder/name/accessible-name) and
// fills each resolved control that is still empty and untouched this
// run. Returns the number of synchronous injections that succeeded;
// queued widget injections resolve at flush.
func (s *Scanner) Scan(ctx context.Context, container dom.Element, rules []Rule, run *runState) int {
	filled := 0

	for _, labelEl := range s.queryAll(container, labelSelector) {
		filled += s.scanLabel(ctx, labelEl, rules, run)
	}
	for _, labelEl := range s.queryAll(container, pseudoLabelSelector) {
		if labelEl.Tag() == "label" {
			continue
		}
		filled += s.scanLabel(ctx, labelEl, rules, run)
	}
	filled += s.scanUnlabeled(ctx, container, rules, run)

	return filled
}

func (s *Scanner) scanLabel(ctx context.Context, labelEl dom.Element, rules []Rule, run *runState) int {
	text := labelEl.Text()
	if text == "" {
		return 0
	}

	control := s.res.AssociateControl(labelEl)
	if control == nil {
		return 0
	}
	if run.touchedControl(control.Key()) || !controlEmpty(control) {
		return 0
	}

	value, ok := s.valueFor(ctx, text, control, rules)
	if !ok {
		return 0
	}
	return s.fill(ctx, run, control, text, value)
}

// scanUnlabeled is the final pass over controls no label pointed at,
// matched by their placeholder, name or accessible name.
func (s *Scanner) scanUnlabeled(ctx context.Context, container dom.Element, rules []Rule, run *runState) int {
	filled := 0
	for _, control := range s.queryAll(container, controlSelector) {
		if !isControl(control) {
			continue
		}
		if run.touchedControl(control.Key()) || !controlEmpty(control) {
			continue
		}
		text := strings.Join([]string{
			control.Attr("placeholder"),
			control.Attr("aria-label"),
			control.Attr("name"),
		}, " ")
		rule, ok := MatchRule(rules, text)
		if !ok {
			continue
		}
		filled += s.fill(ctx, run, control, strings.TrimSpace(text), rule.Value)
	}
	return filled
}

// valueFor picks the value for a question: first matching rule wins;
// the answer provider, when configured, covers the remainder.
func (s *Scanner) valueFor(ctx context.Context, question string, control dom.Element, rules []Rule) (string, bool) {
	if rule, ok := MatchRule(rules, question); ok {
		return rule.Value, true
	}
	if s.Provider == nil {
		return "", false
	}

	answer, err := s.Provider.Answer(ctx, question, s.controlOptions(control))
	if err != nil {
		debugf(s.log, "answer provider for %q: %v", question, err)
		return "", false
	}
	if strings.TrimSpace(answer) == "" {
		return "", false
	}
	debugf(s.log, "provider answered %q -> %q", question, answer)
	return answer, true
}

// controlOptions lists the closed option set of a choice control so the
// provider can be constrained to it.
func (s *Scanner) controlOptions(control dom.Element) []string {
	if control.Tag() == "select" {
		var out []string
		for _, o := range control.Options() {
			if o.Label != "" {
				out = append(out, o.Label)
			}
		}
		return out
	}
	if isInputType(control, "radio") {
		var out []string
		for _, m := range s.res.RadioGroup(control) {
			out = append(out, s.res.RadioLabel(m))
		}
		return out
	}
	return nil
}

func (s *Scanner) fill(ctx context.Context, run *runState, control dom.Element, question, value string) int {
	res, err := s.inj.Inject(ctx, control, value)
	key := "scan:" + normalizeLabel(question)
	switch {
	case err != nil || res == Rejected:
		debugf(s.log, "scan fill %q failed: %v", question, err)
		run.record(control.Key(), key, false)
		return 0
	case res == Queued:
		run.record(control.Key(), key, false)
		return 0
	default:
		run.record(control.Key(), key, true)
		return 1
	}
}

func (s *Scanner) queryAll(container dom.Element, selector string) []dom.Element {
	if container != nil {
		return container.QueryAll(selector)
	}
	return s.doc.QueryAll(selector)
}

// controlEmpty reports whether a control is still unset: unchecked for
// checkable members, empty value otherwise.
func controlEmpty(el dom.Element) bool {
	if isInputType(el, "checkbox") || isInputType(el, "radio") {
		return !el.Checked()
	}
	return el.Value() == ""
}
