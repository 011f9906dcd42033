// Package document parses rustmd literate sources.
//
// A rustmd file interleaves prose with code. Lines whose trimmed text starts
// with '$' are code; blank lines separate blocks; everything else is prose.
// Adjacent prose lines flow together into one paragraph.
package document

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind classifies a single source line.
type Kind int

const (
	Blank Kind = iota
	Code
	Prose
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Code:
		return "code"
	case Prose:
		return "prose"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CodeMarker introduces a code line.
const CodeMarker = "$"

// Line is one classified source line.
type Line struct {
	Number int // 1-based
	Kind   Kind
	Indent int    // leading ASCII spaces in the raw line
	Text   string // trimmed; for code, the marker is stripped

	// Continues is set on prose lines that follow another prose line.
	Continues bool
	// EndsParagraph is set on prose lines not followed by prose.
	EndsParagraph bool
}

// Document is a parsed rustmd source.
type Document struct {
	Lines []Line
}

// maxLineSize bounds a single line; rustmd sources are hand written.
const maxLineSize = 1 << 20

// Parse reads and classifies a whole document.
func Parse(r io.Reader) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var raw []string
	for sc.Scan() {
		raw = append(raw, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return build(raw), nil
}

// ParseString classifies the lines of s.
func ParseString(s string) *Document {
	raw := strings.Split(s, "\n")
	// A final newline terminates the last line rather than opening a new one.
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	for i, l := range raw {
		raw[i] = strings.TrimSuffix(l, "\r")
	}
	return build(raw)
}

func build(raw []string) *Document {
	doc := &Document{Lines: make([]Line, len(raw))}
	for i, l := range raw {
		doc.Lines[i] = classify(i+1, l)
	}
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.Kind != Prose {
			continue
		}
		line.Continues = i > 0 && doc.Lines[i-1].Kind == Prose
		line.EndsParagraph = i == len(doc.Lines)-1 || doc.Lines[i+1].Kind != Prose
	}
	return doc
}

func classify(number int, raw string) Line {
	line := Line{Number: number, Indent: countIndent(raw)}
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		line.Kind = Blank
	case strings.HasPrefix(trimmed, CodeMarker):
		line.Kind = Code
		text := strings.TrimPrefix(trimmed, CodeMarker)
		line.Text = strings.TrimPrefix(text, " ")
	default:
		line.Kind = Prose
		line.Text = trimmed
	}
	return line
}

func countIndent(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

// Code returns the code lines joined by newlines, in document order.
func (d *Document) Code() string {
	var b strings.Builder
	first := true
	for _, l := range d.Lines {
		if l.Kind != Code {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
		first = false
	}
	return b.String()
}

// Count returns how many lines have kind k.
func (d *Document) Count(k Kind) int {
	n := 0
	for _, l := range d.Lines {
		if l.Kind == k {
			n++
		}
	}
	return n
}

// LanguageFromPath derives the embedded code language from a file name:
// the extension with its trailing "md" removed ("divide.rsmd" -> "rs").
func LanguageFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if lang, ok := strings.CutSuffix(ext, "md"); ok && lang != "" {
		return lang
	}
	return ext
}
