// Package normalize implements the Normalizer interface.
// It cleans up the Markdown assembled by the extractor: collapses runs of
// blank lines, strips control characters, fixes heading and caption
// spacing, and drops stray list markers.
package normalize

import (
	"regexp"
	"strings"
)

// maxRounds bounds the fixpoint loop in Normalize. The passes only delete
// characters or insert a single newline where one is missing, so real input
// settles in two rounds.
const maxRounds = 8

var (
	excessNewlines = regexp.MustCompile(`\n{4,}`)
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	headingLine    = regexp.MustCompile(`^#{1,6}(\s|$)`)
	strayBullet    = regexp.MustCompile(`^\s*\*\s*$`)
	imageLine      = regexp.MustCompile(`^!\[.*?\]\(.*\)$`)
	captionLine    = regexp.MustCompile(`^\*[^*\s].*\*$`)
	imageThenText  = regexp.MustCompile(`^(!\[.*?\]\([^)]*\))(\*[^*\s].*\*)$`)
)

// MarkdownNormalizer is the core.Normalizer backed by Normalize.
type MarkdownNormalizer struct{}

// New creates a MarkdownNormalizer.
func New() *MarkdownNormalizer {
	return &MarkdownNormalizer{}
}

// Normalize implements core.Normalizer.
func (n *MarkdownNormalizer) Normalize(markdown string) string {
	return Normalize(markdown)
}

// Normalize runs every cleanup pass until the text stops changing, so
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	for i := 0; i < maxRounds; i++ {
		next := round(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func round(s string) string {
	s = CollapseNewlines(s)
	s = StripControl(s)
	s = SpaceHeadings(s)
	s = DropStrayBullets(s)
	s = SeparateCaptions(s)
	s = TrimLines(s)
	return strings.TrimSpace(s)
}

// CollapseNewlines turns four or more consecutive newlines into three.
func CollapseNewlines(s string) string {
	return excessNewlines.ReplaceAllString(s, "\n\n\n")
}

// StripControl removes ASCII control characters other than tab, newline and
// carriage return. Non-ASCII text is left alone.
func StripControl(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SpaceHeadings inserts a blank line after a heading line when the next
// line has content. Lines inside fenced code blocks are not headings.
func SpaceHeadings(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	fenced := false
	for i, line := range lines {
		out = append(out, line)
		if isFence(line) {
			fenced = !fenced
			continue
		}
		if fenced || !headingLine.MatchString(line) || i+1 >= len(lines) {
			continue
		}
		if strings.TrimSpace(lines[i+1]) != "" {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

// DropStrayBullets removes lines holding nothing but a "*" list marker.
func DropStrayBullets(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	fenced := false
	for _, line := range lines {
		if isFence(line) {
			fenced = !fenced
		} else if !fenced && strayBullet.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// SeparateCaptions puts an italic caption that directly follows an image on
// its own paragraph, splitting it off the image line if necessary.
func SeparateCaptions(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	fenced := false
	for i, line := range lines {
		if isFence(line) {
			fenced = !fenced
		}
		if !fenced {
			if m := imageThenText.FindStringSubmatch(strings.TrimRight(line, " \t")); m != nil {
				out = append(out, m[1], "", m[2])
				continue
			}
		}
		out = append(out, line)
		if fenced || i+1 >= len(lines) {
			continue
		}
		if imageLine.MatchString(strings.TrimRight(line, " \t")) && captionLine.MatchString(strings.TrimRight(lines[i+1], " \t")) {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

// TrimLines removes trailing whitespace from every line. Leading whitespace
// and blank lines are kept.
func TrimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\f\v")
	}
	return strings.Join(lines, "\n")
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}
