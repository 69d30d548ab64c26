package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "  Go   1.24\n is out ", "Go 1.24 is out"},
		{"paragraphs", "<p>First.</p><p>Second.</p>", "First. Second."},
		{"inline markup", `Read <a href="/x">the <b>notes</b></a>`, "Read the notes"},
		{"line breaks", "one<br>two<br/>three", "one two three"},
		{"entities", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"scripts dropped", "<p>keep</p><script>alert(1)</script><style>p{}</style>", "keep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestNormalizeStripsSummaryMarkup(t *testing.T) {
	p := &ArticlePage{
		Total: 1, Page: 1, Limit: 12,
		Articles: []Article{{Title: "a", URL: "https://example.com/a", Summary: "<p>Hello <em>world</em></p>"}},
	}
	_, err := p.normalize()
	assert.NoError(t, err)
	assert.Equal(t, "Hello world", p.Articles[0].Summary)
}
