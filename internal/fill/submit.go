package fill

import (
	"regexp"
	"strings"

	"github.com/mixelka/otpfill/internal/dom"
)

var submitWords = regexp.MustCompile(`(?i)verify|submit|confirm|continue|sign.?in|log.?in|enter|next|done|send|go`)

// LocateSubmit finds the control that submits field. Explicit submit
// controls win over buttons recognized by their label.
func LocateSubmit(doc dom.Document, field dom.Element) (dom.Element, bool) {
	form, hasForm := field.Closest("form")
	container := submitContainer(doc, field, form, hasForm)
	if container == nil {
		return nil, false
	}

	candidates := container.QueryAll(`button[type="submit"], input[type="submit"]`)
	for _, btn := range container.QueryAll(`button, [role="button"], a.btn, a.button`) {
		if submitWords.MatchString(controlText(btn)) && dom.Visible(btn) {
			candidates = append(candidates, btn)
		}
	}

	for _, btn := range candidates {
		if dom.Visible(btn) {
			return btn, true
		}
	}

	if hasForm {
		if btn, ok := form.Query(`button[type="submit"], input[type="submit"], button:not([type])`); ok && dom.Visible(btn) {
			return btn, true
		}
	}

	return nil, false
}

// submitContainer is the form, else the parent of the nearest element with a
// class attribute, else the body
func submitContainer(doc dom.Document, field, form dom.Element, hasForm bool) dom.Element {
	if hasForm {
		return form
	}
	if classed, ok := field.Closest("[class]"); ok {
		if parent, ok := classed.Parent(); ok {
			return parent
		}
	}
	if body, ok := doc.Body(); ok {
		return body
	}
	return nil
}

func controlText(el dom.Element) string {
	text := el.Text()
	if text == "" {
		text = el.Value()
	}
	if text == "" {
		text, _ = el.Attr("aria-label")
	}
	return strings.TrimSpace(text)
}
