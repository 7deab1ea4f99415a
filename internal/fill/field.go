package fill

import (
	"regexp"
	"strings"

	"github.com/mixelka/otpfill/internal/dom"
)

// nearbyFormText is how much of the enclosing form's text counts as a label
const nearbyFormText = 200

type probe func(doc dom.Document) (dom.Element, bool)

func selectorProbe(selector string) probe {
	return func(doc dom.Document) (dom.Element, bool) {
		return doc.Query(selector)
	}
}

// placeholderProbe matches input[placeholder*=word i]
func placeholderProbe(word string) probe {
	return func(doc dom.Document) (dom.Element, bool) {
		for _, el := range doc.QueryAll("input[placeholder]") {
			placeholder, _ := el.Attr("placeholder")
			if strings.Contains(strings.ToLower(placeholder), word) {
				return el, true
			}
		}
		return nil, false
	}
}

var fieldProbes = []probe{
	selectorProbe(`input[autocomplete="one-time-code"]`),
	selectorProbe(`input[name*="otp"]`),
	selectorProbe(`input[name*="code"]`),
	selectorProbe(`input[name*="token"]`),
	selectorProbe(`input[name*="verify"]`),
	selectorProbe(`input[name*="verification"]`),
	placeholderProbe("code"),
	placeholderProbe("otp"),
	placeholderProbe("verification"),
	selectorProbe(`input[type="number"][maxlength="6"]`),
	selectorProbe(`input[type="text"][maxlength="6"]`),
	selectorProbe(`input[type="number"][maxlength="4"]`),
	selectorProbe(`input[type="tel"][maxlength="6"]`),
}

var labelKeywords = regexp.MustCompile(`code|otp|verif|pin|passcode|token`)

// LocateField finds the most likely OTP input. Each probe only looks at its
// first match. When no probe yields a visible input, plain inputs with a
// code-sized maxlength are tried by their label text.
func LocateField(doc dom.Document) (dom.Element, bool) {
	for _, p := range fieldProbes {
		if el, ok := p(doc); ok && dom.Visible(el) {
			return el, true
		}
	}

	for _, el := range doc.QueryAll(`input[type="text"], input[type="number"], input[type="tel"]`) {
		maxLen := el.MaxLength()
		if maxLen < 4 || maxLen > 8 {
			continue
		}
		if labelKeywords.MatchString(strings.ToLower(nearbyText(doc, el))) && dom.Visible(el) {
			return el, true
		}
	}

	return nil, false
}

// nearbyText is the text of a <label for> pointing at el, else its
// describing attributes and the start of its form's text
func nearbyText(doc dom.Document, el dom.Element) string {
	if id := el.ID(); id != "" {
		for _, label := range doc.QueryAll("label[for]") {
			if target, _ := label.Attr("for"); target == id {
				return label.Text()
			}
		}
	}

	ariaLabel, _ := el.Attr("aria-label")
	placeholder, _ := el.Attr("placeholder")
	name, _ := el.Attr("name")

	var formText string
	if form, ok := el.Closest("form"); ok {
		formText = truncate(form.Text(), nearbyFormText)
	}

	return ariaLabel + placeholder + name + formText
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
