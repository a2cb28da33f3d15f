// Package highlight turns {language, text} pairs into per-line
// highlighted HTML for code-fence blocks, backing the "highlight"
// collaborator. Grounded on
// sam-saffron-jarvis-term-llm's internal/ui/highlight.go.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter produces highlighted HTML for source lines of a known
// (or guessed) language.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// New creates a Highlighter using the named chroma style, falling back
// to "monokai" if name is unknown.
func New(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Get("monokai")
	}

	return &Highlighter{
		style:     style,
		formatter: html.New(html.WithClasses(false), html.TabWidth(4)),
	}
}

// Lines highlights each line of text independently, preserving the
// line-by-line addressing appendLines/setProps patches rely on. The
// returned slice always has the same length as the input.
func (hl *Highlighter) Lines(lang string, lines []string) []string {
	lexer := lexerFor(lang)
	out := make([]string, len(lines))

	for i, line := range lines {
		iterator, err := lexer.Tokenise(nil, line)
		if err != nil {
			out[i] = escapeFallback(line)

			continue
		}

		var buf strings.Builder
		if err := hl.formatter.Format(&buf, hl.style, iterator); err != nil {
			out[i] = escapeFallback(line)

			continue
		}
		out[i] = buf.String()
	}

	return out
}

func lexerFor(lang string) chroma.Lexer {
	if lang == "" {
		return lexers.Fallback
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return lexers.Fallback
	}

	return chroma.Coalesce(lexer)
}

func escapeFallback(line string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	return r.Replace(line)
}
