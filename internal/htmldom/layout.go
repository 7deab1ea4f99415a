package htmldom

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mixelka/otpfill/internal/dom"
)

// Size given to rendered elements without an inline width or height
const (
	defaultWidth  = 150
	defaultHeight = 24
)

var inlineBlockTags = map[string]bool{
	"input": true, "button": true, "select": true, "textarea": true, "img": true,
}

var blockTags = map[string]bool{
	"html": true, "body": true, "div": true, "form": true, "p": true, "section": true,
	"main": true, "header": true, "footer": true, "ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "fieldset": true,
}

// layout is zero when the element or an ancestor is not rendered or has an
// inline zero size
func layout(sel *goquery.Selection) dom.Rect {
	for s := sel; s.Length() > 0; s = s.Parent() {
		if !rendered(s) {
			return dom.Rect{}
		}
		style := inlineStyle(s)
		if isZero(style["width"]) || isZero(style["height"]) {
			return dom.Rect{}
		}
	}

	style := inlineStyle(sel)
	return dom.Rect{
		Width:  pixels(style["width"], defaultWidth),
		Height: pixels(style["height"], defaultHeight),
	}
}

// display is the element's own display value, like getComputedStyle. A
// hidden ancestor does not change it.
func display(sel *goquery.Selection) string {
	if !rendered(sel) {
		return "none"
	}
	if value, ok := inlineStyle(sel)["display"]; ok {
		return value
	}

	tag := goquery.NodeName(sel)
	switch {
	case inlineBlockTags[tag]:
		return "inline-block"
	case blockTags[tag]:
		return "block"
	default:
		return "inline"
	}
}

func rendered(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("hidden"); ok {
		return false
	}
	if goquery.NodeName(sel) == "input" && strings.EqualFold(sel.AttrOr("type", ""), "hidden") {
		return false
	}
	return inlineStyle(sel)["display"] != "none"
}

func inlineStyle(sel *goquery.Selection) map[string]string {
	raw, ok := sel.Attr("style")
	if !ok {
		return nil
	}

	style := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		style[strings.ToLower(strings.TrimSpace(name))] = strings.ToLower(value)
	}
	return style
}

func isZero(value string) bool {
	if value == "" {
		return false
	}
	n, err := strconv.ParseFloat(strings.TrimRight(value, "abcdefghijklmnopqrstuvwxyz%"), 64)
	return err == nil && n == 0
}

func pixels(value string, fallback float64) float64 {
	if !strings.HasSuffix(value, "px") {
		return fallback
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
