package htmldom

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/mixelka/otpfill/internal/dom"
)

const page = `<html><body>
<form id="login">
  <input id="shown" name="code">
  <input id="hidden-attr" hidden>
  <input id="hidden-type" type="hidden">
  <input id="none" style="display: none">
  <div style="display:none"><input id="in-none"></div>
  <div style="height: 0px"><input id="in-zero"></div>
  <input id="wide" style="width: 300px" maxlength="6">
  <input id="bad-max" maxlength="six">
  <textarea id="notes">hello</textarea>
  <button type="submit">Verify</button>
</form>
</body></html>`

func mustParse(t *testing.T, html string) *Document {
	t.Helper()
	doc, err := ParseString(html)
	be.Err(t, err, nil)
	return doc
}

func TestVisibility(t *testing.T) {
	doc := mustParse(t, page)

	tests := []struct {
		id      string
		visible bool
		display string
	}{
		{"shown", true, "inline-block"},
		{"hidden-attr", false, "none"},
		{"hidden-type", false, "none"},
		{"none", false, "none"},
		{"in-none", false, "inline-block"},
		{"in-zero", false, "inline-block"},
		{"wide", true, "inline-block"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			el, ok := doc.Query("#" + tt.id)
			be.True(t, ok)
			be.Equal(t, dom.Visible(el), tt.visible)
			be.Equal(t, el.ComputedDisplay(), tt.display)
		})
	}

	wide, _ := doc.Query("#wide")
	be.Equal(t, wide.Rect(), dom.Rect{Width: 300, Height: defaultHeight})
}

func TestElementAccessors(t *testing.T) {
	doc := mustParse(t, page)

	wide, _ := doc.Query("#wide")
	be.Equal(t, wide.MaxLength(), 6)
	be.Equal(t, wide.ID(), "wide")

	bad, _ := doc.Query("#bad-max")
	be.Equal(t, bad.MaxLength(), -1)

	shown, _ := doc.Query("#shown")
	be.Equal(t, shown.MaxLength(), -1)
	name, ok := shown.Attr("name")
	be.True(t, ok)
	be.Equal(t, name, "code")

	form, ok := shown.Closest("form")
	be.True(t, ok)
	be.Equal(t, form.ID(), "login")

	parent, ok := shown.Parent()
	be.True(t, ok)
	be.Equal(t, parent.ID(), "login")

	button, ok := form.Query(`button[type="submit"]`)
	be.True(t, ok)
	be.Equal(t, strings.TrimSpace(button.Text()), "Verify")

	notes, _ := doc.Query("#notes")
	be.Equal(t, notes.Value(), "hello")

	_, ok = doc.Query("#missing")
	be.True(t, !ok)
	be.Equal(t, len(doc.QueryAll("input")), 8)
}

func TestMutationsAreRecorded(t *testing.T) {
	doc := mustParse(t, page)

	el, _ := doc.Query("#shown")
	el.Focus()
	el.SetNativeValue("482913")
	el.Dispatch(dom.Event{Type: "input", Bubbles: true})
	button, _ := doc.Query("button")
	button.Click()

	be.Equal(t, el.Value(), "482913")
	be.Equal(t, doc.Log(), []string{"focus input#shown", "input input#shown", "click button"})

	focused, ok := doc.Focused()
	be.True(t, ok)
	be.Equal(t, focused.ID(), "shown")

	rendered, err := doc.Render()
	be.Err(t, err, nil)
	be.True(t, strings.Contains(rendered, `value="482913"`))
}
