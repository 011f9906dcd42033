package render

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"rustmd/internal/document"
)

// RenderPage writes a standalone HTML page for doc, stylesheet included.
func (r *HTMLRenderer) RenderPage(w io.Writer, doc *document.Document, lang, title string) error {
	var css, body bytes.Buffer
	if err := r.WriteCSS(&css); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := r.Render(&body, doc, lang); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, pageTemplate, html.EscapeString(title), css.String(), body.String())
	return err
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
%s</style>
</head>
<body>
<div class="rustmd">
%s</div>
</body>
</html>
`
