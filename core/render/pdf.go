// Package render: PDF renderer.
// Converts Markdown into a styled PDF using gofpdf.
// Handles headings (variable font sizes), paragraphs, code blocks, quotes,
// lists and tables, and embeds cached images (JPEG, PNG, GIF) inline.
package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer renders Markdown content as a PDF document.
type PDFRenderer struct {
	// BaseDir resolves relative image paths found in the Markdown.
	BaseDir string
}

// NewPDFRenderer creates a PDFRenderer resolving image paths against baseDir.
func NewPDFRenderer(baseDir string) *PDFRenderer {
	return &PDFRenderer{BaseDir: baseDir}
}

var (
	imageLineRegex   = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)\)$`)
	captionLineRegex = regexp.MustCompile(`^\*((?:\\\*|[^*])+)\*$`)
	numberedRegex    = regexp.MustCompile(`^\d+\.\s`)
)

// Render converts Markdown into PDF bytes.
func (r *PDFRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if meta.URL != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr("Source: "+meta.URL), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		if trimmed == "" {
			pdf.Ln(3)
			continue
		}

		if m := imageLineRegex.FindStringSubmatch(trimmed); m != nil {
			if !r.renderImage(pdf, m[2]) {
				pdf.SetFont("Helvetica", "I", 10)
				pdf.MultiCell(0, 5, tr("["+m[1]+"]"), "", "C", false)
			}
			continue
		}

		if m := captionLineRegex.FindStringSubmatch(trimmed); m != nil {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 4.5, tr(unescapeStars(m[1])), "", "C", false)
			pdf.SetTextColor(0, 0, 0)
			continue
		}

		if level := headingLevel(trimmed); level > 0 {
			renderHeading(pdf, tr(strings.TrimSpace(trimmed[level:])), level)
			continue
		}

		if strings.HasPrefix(trimmed, ">") {
			left, top, right, _ := pdf.GetMargins()
			pdf.SetLeftMargin(left + 6)
			pdf.SetX(left + 6)
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(80, 80, 80)
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(text)), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetMargins(left, top, right)
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4, tr(trimmed), "", "L", false)
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("• "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)
			continue
		}

		if numberedRegex.MatchString(trimmed) {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)
			continue
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderImage embeds the image at path scaled to the content width. It
// reports false when the file is missing or not a format gofpdf can embed;
// gofpdf errors are sticky, so nothing is registered in that case.
func (r *PDFRenderer) renderImage(pdf *gofpdf.Fpdf, path string) bool {
	if !filepath.IsAbs(path) && r.BaseDir != "" {
		path = filepath.Join(r.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	imageType, ok := embeddableType(data)
	if !ok {
		return false
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(data))
	if info == nil || pdf.Err() {
		return false
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	maxW := pageW - left - right
	w, h := info.Extent()
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	pdf.Ln(2)
	pdf.ImageOptions(path, left+(maxW-w)/2, -1, w, h, true, opts, 0, "")
	pdf.Ln(2)
	return true
}

// embeddableType maps the decoded image format to a gofpdf image type.
func embeddableType(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	switch format {
	case "jpeg":
		return "JPG", true
	case "png":
		return "PNG", true
	case "gif":
		return "GIF", true
	}
	return "", false
}

// headingLevel returns the ATX heading level of line, or 0.
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) || line[level] != ' ' {
		return 0
	}
	return level
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

var (
	italicRegex    = regexp.MustCompile(`(^|\s)\*([^*]+)\*(\s|$)`)
	inlineLinkRule = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
)

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRegex.ReplaceAllString(text, "$1$2$3")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")
	text = inlineLinkRule.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, `\*`, "*")
	return strings.TrimSpace(text)
}
