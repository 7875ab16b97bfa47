package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Kind is the block type of an article element.
type Kind int

const (
	KindHeading Kind = iota + 1
	KindParagraph
	KindPreformatted
	KindBlockquote
	KindList
	KindFigure
	KindContainer
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindPreformatted:
		return "preformatted"
	case KindBlockquote:
		return "blockquote"
	case KindList:
		return "list"
	case KindFigure:
		return "figure"
	case KindContainer:
		return "container"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Element is a block-level node of the article body.
type Element struct {
	Kind    Kind
	Level   int  // headings only, 1-4
	Ordered bool // lists only
	Sel     *goquery.Selection
}

// Classify maps a node to its Element. Nodes outside the converted tag set
// report false.
func Classify(sel *goquery.Selection) (Element, bool) {
	el := Element{Sel: sel}
	switch name := goquery.NodeName(sel); name {
	case "h1", "h2", "h3", "h4":
		el.Kind = KindHeading
		el.Level = int(name[1] - '0')
	case "p":
		el.Kind = KindParagraph
	case "pre":
		el.Kind = KindPreformatted
	case "blockquote":
		el.Kind = KindBlockquote
	case "ul", "ol":
		el.Kind = KindList
		el.Ordered = name == "ol"
	case "figure":
		el.Kind = KindFigure
	case "div":
		el.Kind = KindContainer
	case "table":
		el.Kind = KindTable
	default:
		return Element{}, false
	}
	return el, true
}

// producesText reports whether the element renders its own text. Figures
// and containers only hold other blocks.
func (e Element) producesText() bool {
	return e.Kind != KindFigure && e.Kind != KindContainer
}

// codeLanguage returns xxx from a "language-xxx" class on the first nested
// code element.
func codeLanguage(pre *goquery.Selection) string {
	class, _ := pre.Find("code").First().Attr("class")
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}
