// Package render turns parsed rustmd documents into HTML pages and terminal output.
package render

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"rustmd/internal/document"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "nord"

// ErrUnknownStyle is returned for a style name chroma does not know.
var ErrUnknownStyle = errors.New("unknown highlight style")

// Debug background tints for each block kind.
const (
	debugIndent = "lightgray"
	debugCode   = "lightcoral"
	debugProse  = "lightblue"
)

// HTMLRenderer writes rustmd documents as HTML with highlighted code lines.
type HTMLRenderer struct {
	style       *chroma.Style
	styleName   string
	debugColors bool
	formatter   *chromahtml.Formatter
}

// HTMLOption configures an HTMLRenderer.
type HTMLOption func(*HTMLRenderer) error

// WithStyle selects the chroma style by name.
func WithStyle(name string) HTMLOption {
	return func(r *HTMLRenderer) error {
		s, ok := styles.Registry[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStyle, name)
		}
		r.style = s
		r.styleName = name
		return nil
	}
}

// WithDebugColors tints every block so the layout is visible.
func WithDebugColors(enabled bool) HTMLOption {
	return func(r *HTMLRenderer) error {
		r.debugColors = enabled
		return nil
	}
}

// NewHTMLRenderer builds a renderer; the default style is DefaultStyle.
func NewHTMLRenderer(opts ...HTMLOption) (*HTMLRenderer, error) {
	r := &HTMLRenderer{
		style:     styles.Get(DefaultStyle),
		styleName: DefaultStyle,
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// StyleName returns the configured chroma style.
func (r *HTMLRenderer) StyleName() string {
	return r.styleName
}

// Render writes the HTML fragment for doc. lang picks the code lexer; an
// unknown language is rendered as plain text.
func (r *HTMLRenderer) Render(w io.Writer, doc *document.Document, lang string) error {
	bw := bufio.NewWriter(w)
	lexer := lexerFor(lang)

	for _, line := range doc.Lines {
		switch line.Kind {
		case document.Blank:
			bw.WriteString("<br>\n")

		case document.Code:
			r.writeIndent(bw, line.Indent)
			fmt.Fprintf(bw, `<pre class="rustmd-code chroma"%s><code class="language-%s">`,
				r.debugStyle(debugCode), html.EscapeString(lang))
			if err := r.highlight(bw, lexer, line.Text); err != nil {
				return fmt.Errorf("line %d: %w", line.Number, err)
			}
			bw.WriteString("</code></pre>\n<br>\n")

		case document.Prose:
			text := html.EscapeString(line.Text)
			if line.Continues {
				text = " " + text
			} else {
				r.writeIndent(bw, line.Indent)
			}
			fmt.Fprintf(bw, `<span class="rustmd-prose"%s>%s</span>`, r.debugStyle(debugProse), text)
			if line.EndsParagraph {
				bw.WriteString("<br>")
			}
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}

func (r *HTMLRenderer) writeIndent(w io.Writer, n int) {
	fmt.Fprintf(w, `<pre class="rustmd-indent"%s><code>%s</code></pre>`+"\n",
		r.debugStyle(debugIndent), strings.Repeat(" ", n))
}

func (r *HTMLRenderer) debugStyle(color string) string {
	if !r.debugColors {
		return ""
	}
	return fmt.Sprintf(` style="background-color: %s;"`, color)
}

func (r *HTMLRenderer) highlight(w io.Writer, lexer chroma.Lexer, code string) error {
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("failed to tokenise code: %w", err)
	}
	// Lexers may append a newline; each code line is rendered inline.
	tokens := it.Tokens()
	if n := len(tokens); n > 0 {
		tokens[n-1].Value = strings.TrimSuffix(tokens[n-1].Value, "\n")
	}
	if err := r.formatter.Format(w, r.style, chroma.Literator(tokens...)); err != nil {
		return fmt.Errorf("failed to format code: %w", err)
	}
	return nil
}

// WriteCSS writes the stylesheet for highlighted code and layout classes.
func (r *HTMLRenderer) WriteCSS(w io.Writer) error {
	if _, err := io.WriteString(w, layoutCSS); err != nil {
		return err
	}
	return r.formatter.WriteCSS(w, r.style)
}

const layoutCSS = `.rustmd-indent, .rustmd-code { display: inline; margin: 0; padding: 0; }
.rustmd-prose { white-space: pre-wrap; }
`

func lexerFor(lang string) chroma.Lexer {
	var l chroma.Lexer
	if lang != "" {
		l = lexers.Get(lang)
		if l == nil {
			l = lexers.Match("source." + lang)
		}
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}
