package htmldom

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mixelka/otpfill/internal/dom"
)

// Element is a single node of a Document
type Element struct {
	doc *Document
	sel *goquery.Selection
}

// Node returns the underlying HTML node
func (e *Element) Node() *html.Node {
	return e.sel.Get(0)
}

func (e *Element) Query(selector string) (dom.Element, bool) {
	return e.doc.wrapFirst(e.sel.Find(selector))
}

func (e *Element) QueryAll(selector string) []dom.Element {
	return e.doc.wrapAll(e.sel.Find(selector))
}

func (e *Element) Closest(selector string) (dom.Element, bool) {
	return e.doc.wrapFirst(e.sel.Closest(selector))
}

func (e *Element) Parent() (dom.Element, bool) {
	return e.doc.wrapFirst(e.sel.Parent())
}

func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *Element) ID() string {
	return e.sel.AttrOr("id", "")
}

func (e *Element) Text() string {
	return e.sel.Text()
}

func (e *Element) Value() string {
	if goquery.NodeName(e.sel) == "textarea" {
		return e.sel.Text()
	}
	return e.sel.AttrOr("value", "")
}

func (e *Element) MaxLength() int {
	raw, ok := e.sel.Attr("maxlength")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func (e *Element) Rect() dom.Rect {
	return layout(e.sel)
}

func (e *Element) ComputedDisplay() string {
	return display(e.sel)
}

func (e *Element) Focus() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.doc.focused = e.Node()
	e.doc.record("focus", e.sel)
}

func (e *Element) SetNativeValue(value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if goquery.NodeName(e.sel) == "textarea" {
		e.sel.SetText(value)
		return
	}
	e.sel.SetAttr("value", value)
}

func (e *Element) Dispatch(event dom.Event) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.doc.record(event.Type, e.sel)
}

func (e *Element) Click() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.doc.record("click", e.sel)
}
