// Package dom is the narrow set of page capabilities the fill logic relies
// on. Lookups report absence with a false result and never fail.
package dom

// Rect is an element's rendered size
type Rect struct {
	Width  float64
	Height float64
}

// Event is a synthetic DOM event
type Event struct {
	Type    string
	Bubbles bool
}

// Document is a loaded page
type Document interface {
	Query(selector string) (Element, bool)
	QueryAll(selector string) []Element
	Body() (Element, bool)
}

// Element is one node of a Document
type Element interface {
	Query(selector string) (Element, bool)
	QueryAll(selector string) []Element
	// Closest matches the element itself or its nearest ancestor
	Closest(selector string) (Element, bool)
	Parent() (Element, bool)

	Attr(name string) (string, bool)
	ID() string
	// Text is the concatenated text content of the subtree
	Text() string
	Value() string
	// MaxLength is -1 when the element has no valid maxlength
	MaxLength() int

	Rect() Rect
	ComputedDisplay() string

	Focus()
	// SetNativeValue sets the value the way the element's own setter does,
	// bypassing property overrides installed by page scripts
	SetNativeValue(value string)
	Dispatch(event Event)
	Click()
}

// Visible reports whether el has a non-empty box and is displayed
func Visible(el Element) bool {
	rect := el.Rect()
	return rect.Width > 0 && rect.Height > 0 && el.ComputedDisplay() != "none"
}
