package parser

import (
	"regexp"
)

// Keyword alternations shared by the cascade. The trailing-context sets are
// narrower than the leading one and differ per rule.
const (
	leadKeywords       = `(?:code|otp|passcode|password|token|verify|verification|\bpin\b|2fa|two.?factor)`
	trailDigitKeywords = `(?:password|one.?time|passcode|otp|\bcode\b|verify|2fa|two.?factor|\bpin\b)`
	trailAlnumKeywords = `(?:one.?time|passcode|otp|\bcode\b|verify|2fa|two.?factor|\bpin\b)`
	trailPairKeywords  = `(?:password|one.?time|passcode|otp|\bcode\b|verify|2fa|\bpin\b)`
)

// codeRule is one class of the extraction cascade.
//
// A rule without trailer is matched with FindAll. A rule with a trailer
// matches head at a word boundary and then requires trailer to match the
// text right after the captured code without consuming it.
type codeRule struct {
	Name    string
	Head    *regexp.Regexp
	Trailer *regexp.Regexp
}

// Extractor picks the most likely verification code out of message text.
// It holds no state besides its compiled rules and is safe for concurrent use.
type Extractor struct {
	rules     []*codeRule
	separator *regexp.Regexp
}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{
		rules: []*codeRule{
			// Keyword before contiguous code ("password: ABC123"). The code
			// part is upper-case only.
			{
				Name: "keyword-alnum",
				Head: regexp.MustCompile(leadKeywords + `[^A-Za-z0-9]{0,5}([A-Z0-9]{4,10})\b`),
			},
			// Keyword before digits ("Your code: 761283", "PIN: 1234")
			{
				Name: "keyword-digits",
				Head: regexp.MustCompile(`(?i)` + leadKeywords + `[^\d]{0,5}(\d{4,8})\b`),
			},
			// Keyword before a split code ("code: 123-ABC", "PIN: 761 283")
			{
				Name: "keyword-pair",
				Head: regexp.MustCompile(`(?i)` + leadKeywords + `[^A-Za-z0-9]{0,5}([A-Z0-9]{2,6}[-\s][A-Z0-9]{2,6})\b`),
			},
			// "is <code>" ("Your code is 761283")
			{
				Name: "is-alnum",
				Head: regexp.MustCompile(`\bis\s+([A-Z0-9]{4,10})\b`),
			},
			{
				Name: "is-digits",
				Head: regexp.MustCompile(`(?i)\bis\s+(\d{4,8})\b`),
			},
			{
				Name: "is-pair",
				Head: regexp.MustCompile(`(?i)\bis\s+([A-Z0-9]{2,6}[-\s][A-Z0-9]{2,6})\b`),
			},
			// Code before keyword ("761283\nPlease enter the above one-time password")
			{
				Name:    "digits-keyword",
				Head:    regexp.MustCompile(`^(\d{4,8})\b`),
				Trailer: regexp.MustCompile(`(?i)^[^\d]{0,80}` + trailDigitKeywords),
			},
			{
				Name:    "alnum-keyword",
				Head:    regexp.MustCompile(`^([A-Z0-9]{4,10})\b`),
				Trailer: regexp.MustCompile(`^[^A-Z0-9]{0,80}` + trailAlnumKeywords),
			},
			{
				Name:    "pair-keyword",
				Head:    regexp.MustCompile(`(?i)^([A-Z0-9]{2,6}[-\s][A-Z0-9]{2,6})\b`),
				Trailer: regexp.MustCompile(`(?i)^[^A-Z0-9]{0,80}` + trailPairKeywords),
			},
		},
		separator: regexp.MustCompile(`[-\s]`),
	}
}

// Extract returns the best code in text. Rules are tried in priority order
// and only the first rule that matches at all is consulted; within it a
// six character code wins over earlier matches.
func (e *Extractor) Extract(text string) (string, bool) {
	for _, rule := range e.rules {
		matches := rule.find(text)
		if len(matches) == 0 {
			continue
		}

		cleaned := make([]string, 0, len(matches))
		for _, m := range matches {
			cleaned = append(cleaned, e.separator.ReplaceAllString(m, ""))
		}

		for _, code := range cleaned {
			if len(code) == 6 {
				return code, true
			}
		}
		return cleaned[0], true
	}

	return "", false
}

// find returns the captured code of every match in text order
func (r *codeRule) find(text string) []string {
	if r.Trailer == nil {
		var codes []string
		for _, m := range r.Head.FindAllStringSubmatch(text, -1) {
			codes = append(codes, m[1])
		}
		return codes
	}

	var codes []string
	for pos := 0; pos < len(text); {
		if !wordBoundary(text, pos) {
			pos++
			continue
		}

		m := r.Head.FindStringSubmatchIndex(text[pos:])
		if m == nil || !r.Trailer.MatchString(text[pos+m[1]:]) {
			pos++
			continue
		}

		codes = append(codes, text[pos+m[2]:pos+m[3]])
		pos += m[1]
	}
	return codes
}

// wordBoundary reports whether an ASCII \b holds before text[pos]
func wordBoundary(text string, pos int) bool {
	before := pos > 0 && isWordByte(text[pos-1])
	after := pos < len(text) && isWordByte(text[pos])
	return before != after
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

var otpSubjectRegex = regexp.MustCompile(`(?i)verif|\bcode\b|otp|one.?time|passcode|\bpin\b|2fa|two.?factor`)

// LooksLikeOTP is the cheap header check deciding whether a message is worth
// extracting from
func LooksLikeOTP(subject, snippet string) bool {
	return otpSubjectRegex.MatchString(subject + " " + snippet)
}
