package email

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/mixelka/otpfill/internal/parser"
)

// maxPartDepth bounds recursion into nested multipart bodies
const maxPartDepth = 32

// Message is a fetched message normalized across providers
type Message struct {
	ID           string
	Subject      string
	From         string
	Snippet      string
	InternalDate int64 // Delivery time, unix ms
	Payload      *Part
}

// Part is one node of a message's MIME tree. Data holds the body as
// base64url, padding optional.
type Part struct {
	MimeType string
	Data     string
	Parts    []*Part
}

// BodyText concatenates the decoded text of every text/plain and text/html
// part of the tree in document order. Undecodable parts contribute nothing.
func BodyText(payload *Part, html *parser.HTMLParser) string {
	return bodyText(payload, html, 0)
}

func bodyText(node *Part, html *parser.HTMLParser, depth int) string {
	if node == nil || depth > maxPartDepth {
		return ""
	}

	parts := node.Parts
	if len(parts) == 0 {
		parts = []*Part{node}
	}

	var texts []string
	for _, part := range parts {
		if part == nil {
			continue
		}

		if part.Data != "" {
			switch part.MimeType {
			case "text/plain":
				texts = append(texts, decodeBody(part.Data))
			case "text/html":
				if text, err := html.Parse(decodeBody(part.Data)); err == nil {
					texts = append(texts, text)
				}
			}
		}

		if len(part.Parts) > 0 {
			texts = append(texts, bodyText(part, html, depth+1))
		}
	}

	return strings.Join(texts, " ")
}

var base64URLReplacer = strings.NewReplacer("+", "-", "/", "_", "\r", "", "\n", "", " ", "")

// decodeBody decodes base64url body data. Invalid UTF-8 is returned byte for
// byte as Latin-1 and data that is not base64 at all yields "".
func decodeBody(data string) string {
	data = strings.TrimRight(base64URLReplacer.Replace(data), "=")

	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return ""
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

// encodeBody is the inverse of decodeBody for providers that hand out raw bytes
func encodeBody(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
