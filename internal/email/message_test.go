package email

import (
	"encoding/base64"
	"testing"

	"github.com/nalgeon/be"

	"github.com/mixelka/otpfill/internal/parser"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestBodyText(t *testing.T) {
	html := parser.NewHTMLParser()

	t.Run("single part", func(t *testing.T) {
		payload := &Part{MimeType: "text/plain", Data: b64("Your code is 482913")}
		be.Equal(t, BodyText(payload, html), "Your code is 482913")
	})

	t.Run("nested parts in document order", func(t *testing.T) {
		payload := &Part{
			MimeType: "multipart/mixed",
			Parts: []*Part{
				{
					MimeType: "multipart/alternative",
					Parts: []*Part{
						{MimeType: "text/plain", Data: b64("plain")},
						{MimeType: "text/html", Data: b64("<p>rich <b>text</b></p><style>p{}</style>")},
					},
				},
				{MimeType: "image/png", Data: b64("\x89PNG")},
				{MimeType: "text/plain", Data: b64("footer")},
			},
		}
		be.Equal(t, BodyText(payload, html), "plain rich text footer")
	})

	t.Run("nil payload", func(t *testing.T) {
		be.Equal(t, BodyText(nil, html), "")
	})

	t.Run("depth is bounded", func(t *testing.T) {
		root := &Part{MimeType: "multipart/mixed"}
		node := root
		for i := 0; i < 100; i++ {
			child := &Part{MimeType: "multipart/mixed"}
			node.Parts = []*Part{child}
			node = child
		}
		node.Parts = []*Part{{MimeType: "text/plain", Data: b64("deep")}}

		be.Equal(t, BodyText(root, html), "")
	})
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"url alphabet without padding", base64.RawURLEncoding.EncodeToString([]byte("ok?>")), "ok?>"},
		{"standard alphabet with padding", base64.StdEncoding.EncodeToString([]byte("ok?>")), "ok?>"},
		{"line breaks", "aGVs\r\nbG8=", "hello"},
		{"latin-1 fallback", b64("caf\xe9"), "café"},
		{"not base64", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, decodeBody(tt.data), tt.want)
		})
	}
}
