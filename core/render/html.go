// Package render: HTML renderer.
// Converts Markdown to HTML with goldmark (GitHub flavored) and wraps the
// fragment in a minimal standalone document.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// HTMLRenderer renders Markdown as an HTML document.
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		),
	}
}

const htmlDocument = `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>body{max-width:42em;margin:2em auto;padding:0 1em;font-family:Georgia,serif;line-height:1.6}img{max-width:100%%}pre{background:#f5f5f5;padding:1em;overflow-x:auto}blockquote{border-left:3px solid #ccc;margin-left:0;padding-left:1em;color:#555}</style>
</head>
<body>
%s</body>
</html>
`

// Render converts Markdown into an HTML document. The title heading is
// already part of the Markdown; meta.Title only fills <title>.
func (r *HTMLRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("converting markdown to HTML: %w", err)
	}

	lang := meta.Language
	if lang == "" {
		lang = "en"
	}
	return fmt.Appendf(nil, htmlDocument, html.EscapeString(lang), html.EscapeString(meta.Title), body.String()), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
