// Package htmldom implements dom.Document over a static HTML page parsed
// with goquery. There is no layout engine: sizes and display values are
// inferred from markup and inline styles.
package htmldom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mixelka/otpfill/internal/dom"
)

// Document is a parsed page that records what is done to it
type Document struct {
	doc *goquery.Document

	mu      sync.Mutex
	focused *html.Node
	log     []string
}

// Parse reads an HTML page
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString reads an HTML page from a string
func ParseString(page string) (*Document, error) {
	return Parse(strings.NewReader(page))
}

func (d *Document) Query(selector string) (dom.Element, bool) {
	return d.wrapFirst(d.doc.Find(selector))
}

func (d *Document) QueryAll(selector string) []dom.Element {
	return d.wrapAll(d.doc.Find(selector))
}

func (d *Document) Body() (dom.Element, bool) {
	return d.wrapFirst(d.doc.Find("body"))
}

// Render serializes the page including values set on it
func (d *Document) Render() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.doc.Html()
}

// Log lists focus, event and click records in order, e.g. "input input#otp"
func (d *Document) Log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.log...)
}

// Focused returns the element that last received focus
func (d *Document) Focused() (dom.Element, bool) {
	d.mu.Lock()
	node := d.focused
	d.mu.Unlock()

	if node == nil {
		return nil, false
	}
	return d.wrapFirst(d.doc.FindNodes(node))
}

func (d *Document) record(action string, sel *goquery.Selection) {
	d.log = append(d.log, action+" "+describe(sel))
}

func (d *Document) wrapFirst(sel *goquery.Selection) (dom.Element, bool) {
	if sel.Length() == 0 {
		return nil, false
	}
	return &Element{doc: d, sel: sel.First()}, true
}

func (d *Document) wrapAll(sel *goquery.Selection) []dom.Element {
	elements := make([]dom.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{doc: d, sel: s})
	})
	return elements
}

// describe renders tag#id, falling back to tag[name=...]
func describe(sel *goquery.Selection) string {
	tag := goquery.NodeName(sel)
	if id, ok := sel.Attr("id"); ok && id != "" {
		return tag + "#" + id
	}
	if name, ok := sel.Attr("name"); ok && name != "" {
		return tag + "[name=" + name + "]"
	}
	return tag
}
