package render

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"rustmd/internal/document"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// TerminalRenderer renders rustmd documents for a terminal via glamour.
type TerminalRenderer struct {
	term *glamour.TermRenderer
}

// NewTerminalRenderer builds a renderer using a glamour style name or style
// file path ("dark", "light", "notty", ...) and a word wrap width.
// "auto" queries the terminal background on every call; callers building
// more than one renderer should resolve it first with ResolveTermStyle.
func NewTerminalRenderer(style string, wordWrap int) (*TerminalRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrap)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	gr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	return &TerminalRenderer{term: gr}, nil
}

// ResolveTermStyle turns "auto" (or "") into a concrete glamour style the
// same way glamour does: "notty" when stdout is not a terminal, otherwise
// "dark" or "light" from the terminal background. Other styles pass through.
// Call it before anything else reads from or draws on the terminal.
func ResolveTermStyle(style string) string {
	return resolveTermStyle(style, term.IsTerminal(int(os.Stdout.Fd())), lipgloss.HasDarkBackground)
}

func resolveTermStyle(style string, tty bool, dark func() bool) string {
	if style != "" && style != "auto" {
		return style
	}
	if !tty {
		return "notty"
	}
	if dark() {
		return "dark"
	}
	return "light"
}

// Render returns doc as styled terminal text.
func (t *TerminalRenderer) Render(doc *document.Document, lang string) (string, error) {
	out, err := t.term.Render(Markdown(doc, lang))
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

var (
	// Inline markup characters; prose is literal text, as in the HTML output.
	markdownEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
		`<`, `\<`, `>`, `\>`, `&`, `\&`, `~`, `\~`,
	)
	// Block markers that only count at the start of a paragraph.
	orderedItem = regexp.MustCompile(`^(\d+)([.)])`)
)

func escapeProse(text string, startsParagraph bool) string {
	text = markdownEscaper.Replace(text)
	if !startsParagraph {
		return text
	}
	if text != "" && strings.ContainsRune("#-+=", rune(text[0])) {
		return `\` + text
	}
	return orderedItem.ReplaceAllString(text, `$1\$2`)
}

// codeFence returns a backtick fence longer than any backtick run in lines.
func codeFence(lines []string) string {
	longest := 0
	for _, l := range lines {
		run := 0
		for _, r := range l {
			if r != '`' {
				run = 0
				continue
			}
			run++
			longest = max(longest, run)
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

// Markdown converts doc to Markdown. Prose paragraphs are joined into single
// lines with markup escaped; runs of code lines become fenced blocks tagged
// with lang.
func Markdown(doc *document.Document, lang string) string {
	var b strings.Builder
	var code []string

	closeCode := func() {
		if len(code) == 0 {
			return
		}
		fence := codeFence(code)
		b.WriteString(fence + lang + "\n")
		for _, l := range code {
			b.WriteString(l + "\n")
		}
		b.WriteString(fence + "\n\n")
		code = code[:0]
	}

	for _, line := range doc.Lines {
		switch line.Kind {
		case document.Blank:
			closeCode()

		case document.Code:
			code = append(code, strings.Repeat(" ", line.Indent)+line.Text)

		case document.Prose:
			closeCode()
			if line.Continues {
				b.WriteString(" ")
			}
			b.WriteString(escapeProse(line.Text, !line.Continues))
			if line.EndsParagraph {
				b.WriteString("\n\n")
			}
		}
	}
	closeCode()
	return strings.TrimRight(b.String(), "\n") + "\n"
}
