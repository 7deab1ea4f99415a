package parser

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser flattens HTML email bodies into single-line plain text
type HTMLParser struct {
	entityRegex    *regexp.Regexp
	invisibleRegex *regexp.Regexp
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		entityRegex: regexp.MustCompile(`&#?\w+;`),
		// Remove invisible Unicode characters (zero-width spaces, etc.)
		invisibleRegex: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{034F}\x{061C}\x{115F}\x{1160}\x{17B4}\x{17B5}\x{180E}\x{2060}-\x{2064}\x{206A}-\x{206F}\x{FE00}-\x{FE0F}\x{FFF0}-\x{FFF8}]+`),
	}
}

// keptEntities are decoded; every other entity becomes a space
var keptEntities = map[string]bool{
	"&nbsp;": true,
	"&amp;":  true,
	"&lt;":   true,
	"&gt;":   true,
}

// Parse converts HTML to whitespace-collapsed text. Style and script blocks
// are dropped and every tag, stray or misnested ones included, separates
// words.
func (p *HTMLParser) Parse(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	raw = p.entityRegex.ReplaceAllStringFunc(raw, func(entity string) string {
		if keptEntities[strings.ToLower(entity)] {
			return strings.ToLower(entity)
		}
		return " "
	})

	var sb strings.Builder
	var skipping string // script or style block being dropped

	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			text := p.invisibleRegex.ReplaceAllString(sb.String(), "")
			// Collapse whitespace, non-breaking spaces included
			return strings.Join(strings.Fields(text), " "), nil

		case html.TextToken:
			if skipping == "" {
				sb.Write(z.Text())
			}

		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipping = tag
			}
			sb.WriteByte(' ')

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == skipping {
				skipping = ""
			}
			sb.WriteByte(' ')

		default:
			// Self-closing tags, comments and doctypes
			sb.WriteByte(' ')
		}
	}
}
