package autofill

import (
	"fmt"
	"strings"

	"github.com/entrhq/autoapply/pkg/dom"
	"github.com/entrhq/autoapply/pkg/logging"
)

const (
	// maxAncestorLevels bounds the upward walk from a label.
	maxAncestorLevels = 5

	// maxForwardSiblings bounds the forward scan from a label.
	maxForwardSiblings = 5

	// controlSelector matches every element the engine treats as an
	// interactive form control, native or framework-rendered.
	controlSelector = `input, textarea, select, [role="combobox"], [role="listbox"], [contenteditable="true"]`

	labelSelector       = "label"
	pseudoLabelSelector = `legend, [class*="question"], [class*="label"]`
)

// fieldContainerClasses are the container name patterns the resolver
// recognizes as a single form row wrapping a label and its control.
var fieldContainerClasses = []string{
	"field", "question", "form-row", "form-group", "form-item", "input-group",
}

// Resolver maps field descriptors to concrete controls in the tree.
type Resolver struct {
	doc dom.Document
	log *logging.Logger
}

// NewResolver creates a resolver over a document. The logger may be nil.
func NewResolver(doc dom.Document, log *logging.Logger) *Resolver {
	return &Resolver{doc: doc, log: log}
}

// strategyFunc evaluates one strategy. When requireVisible is set, only
// visible results count; the fallback pass relaxes that.
type strategyFunc func(r *Resolver, container dom.Element, arg string, requireVisible bool) dom.Element

// strategies is the dispatch table over the closed StrategyKind set.
var strategies = map[StrategyKind]strategyFunc{
	StrategyID:                 (*Resolver).byID,
	StrategyName:               (*Resolver).byName,
	StrategySelector:           (*Resolver).bySelector,
	StrategyLabelFor:           labelStrategy((*Resolver).assocByFor),
	StrategyControlInsideLabel: labelStrategy((*Resolver).assocNested),
	StrategyLabelSibling:       labelStrategy((*Resolver).assocNextSibling),
	StrategySiblingWraps:       labelStrategy((*Resolver).assocSiblingWraps),
	StrategyReverseRef:         labelStrategy((*Resolver).assocReverseRef),
	StrategyAncestorScan:       labelStrategy((*Resolver).assocAncestorScan),
	StrategyFieldContainer:     labelStrategy((*Resolver).assocFieldContainer),
	StrategyForwardSiblings:    labelStrategy((*Resolver).assocForwardSiblings),
	StrategyPlaceholder:        (*Resolver).byPlaceholder,
}

// labelStrategy adapts a label-association mechanism into a strategy:
// find the labels whose text matches the argument, then apply the
// mechanism to each until one yields an acceptable control. Several
// labels on a page can carry the same text (one hidden template, one
// rendered), so each gets its turn.
func labelStrategy(assoc func(r *Resolver, labelEl dom.Element) dom.Element) strategyFunc {
	return func(r *Resolver, container dom.Element, arg string, requireVisible bool) dom.Element {
		for _, labelEl := range r.matchingLabels(container, arg) {
			el := assoc(r, labelEl)
			if el == nil {
				continue
			}
			if requireVisible && !el.Visible() {
				continue
			}
			return el
		}
		return nil
	}
}

// Resolve tries the descriptor's strategies in order. The first pass
// requires a visible result; the fallback pass accepts hidden matches.
// Returns nil when every strategy is exhausted.
func (r *Resolver) Resolve(container dom.Element, d FieldDescriptor) dom.Element {
	for _, requireVisible := range []bool{true, false} {
		for _, s := range d.Strategies {
			fn, ok := strategies[s.Kind]
			if !ok {
				continue
			}
			el := fn(r, container, s.Arg, requireVisible)
			if el == nil {
				continue
			}
			if requireVisible && !el.Visible() {
				continue
			}
			debugf(r.log, "resolved %q via %s(%q)", d.Key, s.Kind, s.Arg)
			return el
		}
	}
	debugf(r.log, "no control for %q after %d strategies", d.Key, len(d.Strategies))
	return nil
}

// AssociateControl runs the full association chain against a label
// element already in hand, as the label scanner does for discovered
// question text.
func (r *Resolver) AssociateControl(labelEl dom.Element) dom.Element {
	chain := []func(*Resolver, dom.Element) dom.Element{
		(*Resolver).assocByFor,
		(*Resolver).assocNested,
		(*Resolver).assocNextSibling,
		(*Resolver).assocSiblingWraps,
		(*Resolver).assocReverseRef,
		(*Resolver).assocAncestorScan,
		(*Resolver).assocFieldContainer,
		(*Resolver).assocForwardSiblings,
	}
	for _, assoc := range chain {
		if el := assoc(r, labelEl); el != nil {
			return el
		}
	}
	return nil
}

// query scopes a selector to the container when one is set.
func (r *Resolver) query(container dom.Element, selector string) dom.Element {
	if container != nil {
		return container.Query(selector)
	}
	return r.doc.Query(selector)
}

func (r *Resolver) queryAll(container dom.Element, selector string) []dom.Element {
	if container != nil {
		return container.QueryAll(selector)
	}
	return r.doc.QueryAll(selector)
}

func (r *Resolver) byID(container dom.Element, arg string, requireVisible bool) dom.Element {
	return r.firstControl(r.queryAll(container, fmt.Sprintf(`[id=%q]`, arg)), requireVisible)
}

func (r *Resolver) byName(container dom.Element, arg string, requireVisible bool) dom.Element {
	return r.firstControl(r.queryAll(container, fmt.Sprintf(`[name=%q]`, arg)), requireVisible)
}

func (r *Resolver) bySelector(container dom.Element, arg string, requireVisible bool) dom.Element {
	for _, el := range r.queryAll(container, arg) {
		if requireVisible && !el.Visible() {
			continue
		}
		return el
	}
	return nil
}

func (r *Resolver) byPlaceholder(container dom.Element, arg string, requireVisible bool) dom.Element {
	want := normalizeLabel(arg)
	for _, el := range r.queryAll(container, controlSelector) {
		if !isControl(el) {
			continue
		}
		if requireVisible && !el.Visible() {
			continue
		}
		for _, attr := range []string{"placeholder", "aria-label", "name"} {
			if v := normalizeLabel(el.Attr(attr)); v != "" && strings.Contains(v, want) {
				return el
			}
		}
	}
	return nil
}

// matchingLabels finds label and pseudo-label elements whose text
// matches the wanted label.
func (r *Resolver) matchingLabels(container dom.Element, wanted string) []dom.Element {
	var out []dom.Element
	for _, sel := range []string{labelSelector, pseudoLabelSelector} {
		for _, el := range r.queryAll(container, sel) {
			if labelMatches(el.Text(), wanted) {
				out = append(out, el)
			}
		}
	}
	return out
}

// assocByFor follows an explicit label[for] linkage.
func (r *Resolver) assocByFor(labelEl dom.Element) dom.Element {
	forID := labelEl.Attr("for")
	if forID == "" {
		return nil
	}
	return r.firstControl(r.doc.QueryAll(fmt.Sprintf(`[id=%q]`, forID)), false)
}

// assocNested takes a control nested inside the label itself.
func (r *Resolver) assocNested(labelEl dom.Element) dom.Element {
	return r.firstControl(labelEl.QueryAll(controlSelector), false)
}

// assocNextSibling takes the label's immediate next sibling when it is a
// control.
func (r *Resolver) assocNextSibling(labelEl dom.Element) dom.Element {
	sib := labelEl.NextSibling()
	if sib != nil && isControl(sib) {
		return sib
	}
	return nil
}

// assocSiblingWraps takes a control wrapped in the immediate next
// sibling.
func (r *Resolver) assocSiblingWraps(labelEl dom.Element) dom.Element {
	sib := labelEl.NextSibling()
	if sib == nil || isControl(sib) {
		return nil
	}
	return r.firstControl(sib.QueryAll(controlSelector), false)
}

// assocReverseRef finds a control that points back at the label through
// aria-labelledby.
func (r *Resolver) assocReverseRef(labelEl dom.Element) dom.Element {
	labelID := labelEl.Attr("id")
	if labelID == "" {
		return nil
	}
	for _, el := range r.doc.QueryAll(`[aria-labelledby]`) {
		if !isControl(el) {
			continue
		}
		if containsToken(el.Attr("aria-labelledby"), labelID) {
			return el
		}
	}
	return nil
}

// assocAncestorScan walks up at most maxAncestorLevels from the label.
// An ancestor with exactly one candidate control wins outright; with 2-4
// candidates only an explicit association to the label in hand is
// accepted; more than 4 aborts the walk rather than guess.
func (r *Resolver) assocAncestorScan(labelEl dom.Element) dom.Element {
	labelID := labelEl.Attr("id")
	forID := labelEl.Attr("for")

	node := labelEl
	for level := 0; level < maxAncestorLevels; level++ {
		node = node.Parent()
		if node == nil {
			return nil
		}
		candidates := r.filterControls(node.QueryAll(controlSelector))
		switch {
		case len(candidates) == 0:
			continue
		case len(candidates) == 1:
			return candidates[0]
		case len(candidates) <= 4:
			for _, c := range candidates {
				if forID != "" && c.Attr("id") == forID {
					return c
				}
				if labelID != "" && containsToken(c.Attr("aria-labelledby"), labelID) {
					return c
				}
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// assocFieldContainer walks up to the nearest ancestor matching a known
// field/question/form-row container class and takes its control.
func (r *Resolver) assocFieldContainer(labelEl dom.Element) dom.Element {
	node := labelEl
	for level := 0; level < maxAncestorLevels; level++ {
		node = node.Parent()
		if node == nil {
			return nil
		}
		class := strings.ToLower(node.Attr("class"))
		if class == "" {
			continue
		}
		for _, pattern := range fieldContainerClasses {
			if strings.Contains(class, pattern) {
				return r.firstControl(node.QueryAll(controlSelector), false)
			}
		}
	}
	return nil
}

// assocForwardSiblings scans at most maxForwardSiblings siblings after
// the label for a control, direct or wrapped one level deep.
func (r *Resolver) assocForwardSiblings(labelEl dom.Element) dom.Element {
	sib := labelEl.NextSibling()
	for i := 0; i < maxForwardSiblings && sib != nil; i++ {
		if isControl(sib) {
			return sib
		}
		if el := r.firstControl(sib.QueryAll(controlSelector), false); el != nil {
			return el
		}
		sib = sib.NextSibling()
	}
	return nil
}

// firstControl returns the first element that is a fillable control,
// preferring visible ones when required.
func (r *Resolver) firstControl(els []dom.Element, requireVisible bool) dom.Element {
	for _, el := range els {
		if !isControl(el) {
			continue
		}
		if requireVisible && !el.Visible() {
			continue
		}
		return el
	}
	return nil
}

func (r *Resolver) filterControls(els []dom.Element) []dom.Element {
	var out []dom.Element
	for _, el := range els {
		if isControl(el) {
			out = append(out, el)
		}
	}
	return out
}

// isControl reports whether the element is a control the engine can
// fill. Hidden, submit and button-typed inputs are not fillable.
func isControl(el dom.Element) bool {
	if el == nil {
		return false
	}
	switch el.Tag() {
	case "textarea", "select":
		return true
	case "input":
		switch strings.ToLower(el.Attr("type")) {
		case "hidden", "submit", "button", "reset", "image":
			return false
		default:
			return true
		}
	}
	switch strings.ToLower(el.Attr("role")) {
	case "combobox", "listbox":
		return true
	}
	return strings.EqualFold(el.Attr("contenteditable"), "true")
}

// containsToken reports whether a space-separated attribute value
// contains the token.
func containsToken(attr, token string) bool {
	if attr == "" || token == "" {
		return false
	}
	for _, t := range strings.Fields(attr) {
		if t == token {
			return true
		}
	}
	return false
}

func debugf(l *logging.Logger, format string, v ...any) {
	if l != nil {
		l.Debugf(format, v...)
	}
}
