package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/article2md/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// backgroundURL pulls the target out of a CSS url(...) value. This is a
// best-effort match on inline styles, not a CSS parser.
var backgroundURL = regexp.MustCompile(`url\(["']?(.*?)["']?\)`)

// Locator finds the images of an article body.
type Locator struct {
	base *url.URL
	log  logrus.FieldLogger
}

// NewLocator creates a Locator resolving relative sources against baseURL.
func NewLocator(baseURL string, log logrus.FieldLogger) (*Locator, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Locator{base: base, log: log}, nil
}

// Locate returns one ImageRef per distinct absolute source URL found under
// body, ordered by the position of its anchor element. Candidates are
// gathered rule by rule (img tags, image figures, image divs, background
// images) and the first candidate for a URL wins.
func (l *Locator) Locate(body *goquery.Selection) []core.ImageRef {
	var candidates []core.ImageRef
	add := func(ref core.ImageRef, ok bool) {
		if ok {
			candidates = append(candidates, ref)
		}
	}

	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		add(l.fromImg(img, img))
	})
	body.Find("figure").FilterFunction(classMentionsImage).Each(func(_ int, fig *goquery.Selection) {
		add(l.fromContainer(fig))
	})
	body.Find("div").FilterFunction(classMentionsImage).Each(func(_ int, div *goquery.Selection) {
		add(l.fromContainer(div))
	})
	body.Find("div").FilterFunction(hasBackgroundImage).Each(func(_ int, div *goquery.Selection) {
		add(l.fromStyle(div))
	})

	seen := make(map[string]bool, len(candidates))
	refs := candidates[:0]
	for _, ref := range candidates {
		if seen[ref.Src] {
			continue
		}
		seen[ref.Src] = true
		refs = append(refs, ref)
	}

	order := documentOrder(body)
	sort.SliceStable(refs, func(i, j int) bool {
		return order[refs[i].Anchor] < order[refs[j].Anchor]
	})
	return refs
}

func (l *Locator) fromImg(anchor, img *goquery.Selection) (core.ImageRef, bool) {
	src := imageSource(img)
	if src == "" {
		l.log.Warn("Found image element without source URL")
		return core.ImageRef{}, false
	}
	abs, ok := l.resolve(src)
	if !ok {
		return core.ImageRef{}, false
	}
	alt, _ := img.Attr("alt")
	return core.ImageRef{
		Src:     abs,
		Alt:     strings.TrimSpace(alt),
		Caption: caption(anchor),
		Anchor:  anchor.Get(0),
	}, true
}

// fromContainer uses the first img inside a figure or div, falling back to
// the container's own background image.
func (l *Locator) fromContainer(container *goquery.Selection) (core.ImageRef, bool) {
	if img := container.Find("img").First(); img.Length() > 0 {
		return l.fromImg(container, img)
	}
	return l.fromStyle(container)
}

// fromStyle is the low-confidence path: the URL comes from a regexp over
// the inline style and there is no alt text.
func (l *Locator) fromStyle(container *goquery.Selection) (core.ImageRef, bool) {
	style, _ := container.Attr("style")
	m := backgroundURL.FindStringSubmatch(style)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return core.ImageRef{}, false
	}
	abs, ok := l.resolve(strings.TrimSpace(m[1]))
	if !ok {
		return core.ImageRef{}, false
	}
	l.log.WithField("url", abs).Debug("Image taken from background-image style")
	return core.ImageRef{
		Src:       abs,
		Caption:   caption(container),
		FromStyle: true,
		Anchor:    container.Get(0),
	}, true
}

// resolve makes src absolute against the base origin. Inline data URIs and
// unparsable sources are skipped.
func (l *Locator) resolve(src string) (string, bool) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src, true
	}
	u, err := url.Parse(src)
	if err != nil {
		l.log.WithFields(logrus.Fields{"src": src, "error": err}).Warn("Skipping unparsable image URL")
		return "", false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		l.log.WithField("scheme", u.Scheme).Debug("Skipping non-HTTP image source")
		return "", false
	}
	return l.base.ResolveReference(u).String(), true
}

// imageSource returns src, data-src, or the first srcset candidate.
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src"} {
		if v, _ := img.Attr(attr); strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	srcset, _ := img.Attr("srcset")
	if first, _, _ := strings.Cut(strings.TrimSpace(srcset), ","); first != "" {
		return strings.Fields(first)[0]
	}
	return ""
}

// caption returns the figcaption text for an image anchor: one inside the
// anchor, or one in the figure that encloses it. The text is flattened to a
// single line with "*" escaped so it fits in an italic caption line.
func caption(anchor *goquery.Selection) string {
	fc := anchor.Find("figcaption").First()
	if fc.Length() == 0 {
		fc = anchor.Closest("figure").Find("figcaption").First()
	}
	text := strings.Join(strings.Fields(fc.Text()), " ")
	return strings.ReplaceAll(text, "*", `\*`)
}

func classMentionsImage(_ int, s *goquery.Selection) bool {
	class, _ := s.Attr("class")
	return strings.Contains(strings.ToLower(class), "image")
}

func hasBackgroundImage(_ int, s *goquery.Selection) bool {
	style, _ := s.Attr("style")
	return strings.Contains(strings.ToLower(style), "background-image")
}

// documentOrder indexes every element under root by pre-order position.
func documentOrder(root *goquery.Selection) map[*html.Node]int {
	order := map[*html.Node]int{}
	root.Find("*").Each(func(i int, s *goquery.Selection) {
		order[s.Get(0)] = i
	})
	return order
}
