package autofill

// StrategyKind enumerates the closed set of resolution strategies. A
// descriptor carries an ordered list; the resolver evaluates them until
// one yields a visible control, then falls back to accepting hidden
// matches.
type StrategyKind int

const (
	// StrategyID matches a control by exact id attribute. Arg is the id.
	StrategyID StrategyKind = iota

	// StrategyName matches a control by exact name attribute.
	StrategyName

	// StrategySelector matches a raw CSS selector, used for
	// platform-specific adapter hints.
	StrategySelector

	// StrategyLabelFor finds a label whose text matches Arg and follows
	// its explicit for= association.
	StrategyLabelFor

	// StrategyControlInsideLabel finds a matching label and takes the
	// control nested inside it.
	StrategyControlInsideLabel

	// StrategyLabelSibling takes the matching label's immediate next
	// sibling when that sibling is itself a control.
	StrategyLabelSibling

	// StrategySiblingWraps takes the control wrapped inside the
	// matching label's immediate next sibling.
	StrategySiblingWraps

	// StrategyReverseRef finds a control pointing back at the matching
	// label through aria-labelledby.
	StrategyReverseRef

	// StrategyAncestorScan walks up from the matching label (at most 5
	// levels) and picks the nearest ancestor containing exactly one
	// candidate control, or, among 2-4 candidates, the one explicitly
	// associated with the label. It never guesses among more.
	StrategyAncestorScan

	// StrategyFieldContainer walks up to the nearest ancestor whose
	// class matches known field/question/form-row container patterns
	// and takes the control inside it.
	StrategyFieldContainer

	// StrategyForwardSiblings scans at most 5 forward siblings of the
	// matching label for a control, direct or wrapped.
	StrategyForwardSiblings

	// StrategyPlaceholder matches a control whose placeholder, name or
	// aria-label contains Arg.
	StrategyPlaceholder
)

var strategyNames = map[StrategyKind]string{
	StrategyID:                 "id",
	StrategyName:               "name",
	StrategySelector:           "selector",
	StrategyLabelFor:           "label-for",
	StrategyControlInsideLabel: "control-inside-label",
	StrategyLabelSibling:       "label-sibling",
	StrategySiblingWraps:       "sibling-wraps",
	StrategyReverseRef:         "reverse-ref",
	StrategyAncestorScan:       "ancestor-scan",
	StrategyFieldContainer:     "field-container",
	StrategyForwardSiblings:    "forward-siblings",
	StrategyPlaceholder:        "placeholder",
}

func (k StrategyKind) String() string {
	if name, ok := strategyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Strategy is one named resolution procedure with its argument.
type Strategy struct {
	Kind StrategyKind
	Arg  string
}

// FieldDescriptor binds a semantic field key to the value to inject and
// the ordered strategies used to locate its control.
type FieldDescriptor struct {
	Key        string
	Value      string
	Strategies []Strategy
}

// labelChainKinds is the standard ordered association chain applied to a
// label text, from the most explicit linkage to the loosest.
var labelChainKinds = []StrategyKind{
	StrategyLabelFor,
	StrategyControlInsideLabel,
	StrategyLabelSibling,
	StrategySiblingWraps,
	StrategyReverseRef,
	StrategyAncestorScan,
	StrategyFieldContainer,
	StrategyForwardSiblings,
}

// LabelChain expands a label text into the standard ordered strategy
// chain.
func LabelChain(label string) []Strategy {
	out := make([]Strategy, 0, len(labelChainKinds))
	for _, k := range labelChainKinds {
		out = append(out, Strategy{Kind: k, Arg: label})
	}
	return out
}

// Field builds a descriptor resolved by one or more candidate label
// texts, tried in order through the full association chain.
func Field(key, value string, labels ...string) FieldDescriptor {
	d := FieldDescriptor{Key: key, Value: value}
	for _, l := range labels {
		d.Strategies = append(d.Strategies, LabelChain(l)...)
	}
	return d
}
