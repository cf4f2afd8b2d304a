package dom

// Document is a live document tree. Query selectors use CSS syntax; the
// subset supported is whatever both backends can evaluate (tag, #id,
// [attr], [attr=value], [attr*=value], comma groups, descendant combinators).
type Document interface {
	// Root returns the document root element (html), or nil if the
	// document has no content.
	Root() Element

	// Query returns the first element matching the selector, or nil.
	Query(selector string) Element

	// QueryAll returns all elements matching the selector in document order.
	QueryAll(selector string) []Element

	// Subscribe registers a callback invoked after every structural
	// mutation of the tree. The returned function unsubscribes; it is
	// safe to call more than once.
	Subscribe(fn func()) (unsubscribe func())
}

// Option is one entry of a native select control.
type Option struct {
	Value string
	Label string
}

// FileUpload carries the raw bytes assigned to a file input.
type FileUpload struct {
	Name string
	MIME string
	Data []byte
}

// Element is an opaque handle to a node in the tree.
//
// Read accessors return zero values when the underlying node has gone
// stale (removed or replaced by the page); interaction methods return an
// error in that case. Identity is carried by Key, which is stable for the
// lifetime of the node.
type Element interface {
	// Key returns a stable identifier for this node, unique within the
	// document. Two handles refer to the same node iff their keys match.
	Key() string

	// Tag returns the lower-cased tag name.
	Tag() string

	// Attr returns the value of the named attribute, or "".
	Attr(name string) string

	// Text returns the concatenated visible text content, whitespace
	// collapsed and trimmed.
	Text() string

	// Value returns the current value of a form control. For checkboxes
	// and radios this is the value attribute, not the checked state.
	Value() string

	// Checked reports the checked state of a checkbox or radio member.
	Checked() bool

	// Visible reports whether the node participates in layout: not
	// display:none, not visibility:hidden, not [hidden], not
	// type=hidden, and no hidden ancestor.
	Visible() bool

	// Enabled reports whether the control accepts interaction (no
	// disabled attribute, no aria-disabled).
	Enabled() bool

	// Options returns the option list of a native select, nil otherwise.
	Options() []Option

	Parent() Element
	NextSibling() Element
	Children() []Element
	Query(selector string) Element
	QueryAll(selector string) []Element

	// Focus moves input focus to the element.
	Focus() error

	// Blur removes focus and fires the blur event.
	Blur() error

	// Click performs a full simulated pointer sequence
	// (pointerdown, pointerup, click) on the element. Some frameworks
	// bind to pointer events rather than semantic click, so a bare
	// click dispatch is not enough.
	Click() error

	// SetValue writes the value through the platform's native setter,
	// bypassing any framework-visible property, and fires no events.
	// Event emission is the caller's responsibility. On a select it
	// marks the option with the given value as selected.
	SetValue(value string) error

	// SetFiles assigns an upload to a file input through the backend's
	// file-list mechanism, firing no events.
	SetFiles(f FileUpload) error

	// Dispatch fires a single named event (input, change, blur, ...) so
	// framework listeners observe the mutation.
	Dispatch(event string) error

	// Press sends a single key (e.g. "Escape") to the element.
	Press(key string) error

	// ScrollIntoView brings the element into the viewport.
	ScrollIntoView() error
}

// SameElement reports whether two handles refer to the same node.
// Either side may be nil.
func SameElement(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}
