// Package render: JSON renderer.
// Builds the structured JSON output from Markdown and page metadata.
// Parses the Markdown to extract structural information (headings, links,
// images, code blocks, tables, quotes, lists).
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/article2md/core"
)

// JSONRenderer produces structured JSON output from Markdown.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render converts Markdown and metadata into the JSON document.
func (r *JSONRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	prose := stripFences(markdown)
	headings := extractHeadings(prose)

	page := core.PageJSON{
		Metadata: meta,
		Content: core.PageContent{
			Text:     stripMarkdown(markdown),
			Markdown: markdown,
			Sections: buildSections(prose, headings),
		},
		Structure: core.PageStructure{
			Headings:   headings,
			Links:      extractLinks(prose),
			Images:     extractImages(prose),
			CodeBlocks: countCodeBlocks(markdown),
			Tables:     countTables(prose),
			Quotes:     countQuotes(prose),
			Lists:      countLists(prose),
		},
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// --- Markdown parsing helpers ---

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func extractHeadings(md string) []core.Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]core.Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, core.Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}

// linkRegex matches Markdown links [text](url) and images ![alt](path);
// the first group tells them apart.
var linkRegex = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)\s]+)\)`)

func extractLinks(md string) []core.Link {
	matches := linkRegex.FindAllStringSubmatch(md, -1)
	links := make([]core.Link, 0, len(matches))
	for _, m := range matches {
		if m[1] == "!" {
			continue
		}
		links = append(links, core.Link{Text: m[2], Href: m[3]})
	}
	return links
}

// imageRegex matches an image line and the italic caption that may follow
// it, either on the next line or after one blank line. Captions may hold
// escaped stars.
var imageRegex = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)(?:\n\n?\*((?:\\\*|[^*\n])+)\*)?`)

func extractImages(md string) []core.Image {
	matches := imageRegex.FindAllStringSubmatch(md, -1)
	images := make([]core.Image, 0, len(matches))
	for _, m := range matches {
		images = append(images, core.Image{Alt: m[1], Path: m[2], Caption: unescapeStars(strings.TrimSpace(m[3]))})
	}
	return images
}

func unescapeStars(s string) string {
	return strings.ReplaceAll(s, `\*`, "*")
}

func buildSections(md string, headings []core.Heading) []core.Section {
	if len(headings) == 0 {
		return nil
	}

	lines := strings.Split(md, "\n")
	sections := make([]core.Section, 0, len(headings))
	headingIdx := 0

	var currentSection *core.Section
	var sectionLines []string

	for _, line := range lines {
		if headingRegex.MatchString(line) && headingIdx < len(headings) {
			if currentSection != nil {
				currentSection.Text = strings.TrimSpace(strings.Join(sectionLines, "\n"))
				sections = append(sections, *currentSection)
			}
			currentSection = &core.Section{
				Heading: headings[headingIdx].Text,
				Level:   headings[headingIdx].Level,
			}
			sectionLines = nil
			headingIdx++
		} else if currentSection != nil {
			sectionLines = append(sectionLines, line)
		}
	}
	if currentSection != nil {
		currentSection.Text = strings.TrimSpace(strings.Join(sectionLines, "\n"))
		sections = append(sections, *currentSection)
	}

	return sections
}

// stripFences blanks the contents of fenced code blocks so that code
// lines are not mistaken for headings, links or list items.
func stripFences(md string) string {
	lines := strings.Split(md, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			lines[i] = ""
			continue
		}
		if inFence {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// countCodeBlocks counts fenced code blocks (``` delimited).
func countCodeBlocks(md string) int {
	n := 0
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			n++
		}
	}
	return n / 2
}

// countTables counts Markdown tables by looking for separator rows (|---|).
var tableRowRegex = regexp.MustCompile(`(?m)^\|[-:| ]+\|$`)

func countTables(md string) int {
	return len(tableRowRegex.FindAllString(md, -1))
}

// countQuotes counts blockquotes, not quoted lines.
func countQuotes(md string) int {
	n := 0
	prevQuoted := false
	for _, line := range strings.Split(md, "\n") {
		quoted := strings.HasPrefix(line, ">")
		if quoted && !prevQuoted {
			n++
		}
		prevQuoted = quoted
	}
	return n
}

// countLists counts list items (lines starting with -, * or 1.).
var listItemRegex = regexp.MustCompile(`(?m)^[ \t]*(?:[-*]|\d+\.)[ \t]`)

func countLists(md string) int {
	return len(listItemRegex.FindAllString(md, -1))
}

var (
	emphasisRegex   = regexp.MustCompile(`\*{1,3}([^*\n]+)\*{1,3}`)
	inlineCodeRegex = regexp.MustCompile("`+([^`]+)`+")
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting to produce plain text.
func stripMarkdown(md string) string {
	text := headingRegex.ReplaceAllString(md, "$2")
	text = imageRegex.ReplaceAllStringFunc(text, func(m string) string {
		sub := imageRegex.FindStringSubmatch(m)
		return strings.TrimSpace(sub[1] + "\n" + sub[3])
	})
	text = linkRegex.ReplaceAllString(text, "$2")
	text = strings.ReplaceAll(text, `\*`, "\x00")
	text = emphasisRegex.ReplaceAllString(text, "$1")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, ">"); ok {
			line = strings.TrimPrefix(rest, " ")
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")
	text = strings.ReplaceAll(text, "\x00", "*")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
