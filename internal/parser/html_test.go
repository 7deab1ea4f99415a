package parser

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestHTMLParserParse(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"tags become spaces", "<p>Your code</p><p>123456</p>", "Your code 123456"},
		{"style and script dropped", "<style>.a{color:red}</style><script>var x = 1;</script><b>Hi</b>", "Hi"},
		{"entities", "a&nbsp;b &amp; c &lt;d&gt; e&copy;f&#8203;g", "a b & c <d> e f g"},
		{"whitespace collapsed", "<div>\n\n  one \t two\n</div>", "one two"},
		{"invisible characters removed", "<span>76\u200b12\u200b83</span>", "761283"},
		{"stray end tag separates", "<p>Use 482913</td>as your one-time code</p>", "Use 482913 as your one-time code"},
		{"misnested tags separate", "<b>48<i>29</b>13</i>", "48 29 13"},
		{"self-closing and comments separate", "one<br/>two<!-- x -->three", "one two three"},
		{"empty", "", ""},
	}

	p := NewHTMLParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.html)
			be.Err(t, err, nil)
			be.Equal(t, got, tt.want)
		})
	}
}

func TestStrayTagKeepsCodeApart(t *testing.T) {
	text, err := NewHTMLParser().Parse("<p>Use 482913</td>as your one-time code</p>")
	be.Err(t, err, nil)

	code, ok := NewExtractor().Extract("Sign-in " + text)
	be.True(t, ok)
	be.Equal(t, code, "482913")
}
