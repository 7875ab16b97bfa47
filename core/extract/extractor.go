// Package extract implements the Extractor interface.
// It turns an article page into raw Markdown by:
//  1. Taking the first <h1> of the page as the title (an h1 inside the
//     body is still emitted by the walk)
//  2. Locating every image in the <article> body and caching it locally
//  3. Walking the body in document order, emitting each block as Markdown
//     and each located image where its anchor element sits
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/article2md/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// ErrNoArticle is returned when the page has no <article> element.
var ErrNoArticle = errors.New("no article content found")

const defaultAlt = "Image"

// Options configures an Extractor.
type Options struct {
	// BaseURL is the origin relative image sources are resolved against.
	BaseURL string
	// RelativeTo is the directory image paths in the Markdown are relative
	// to. Defaults to the working directory.
	RelativeTo string
	// Tables converts <table> elements instead of skipping them.
	Tables bool
	// ImageWorkers downloads up to this many images at once. Values below 2
	// keep downloads sequential.
	ImageWorkers int
	Logger       logrus.FieldLogger
}

// HTMLExtractor converts article pages to Markdown.
type HTMLExtractor struct {
	images  core.ImageResolver
	locator *Locator
	tables  *converter.Converter
	opts    Options
	log     logrus.FieldLogger
}

// New creates an HTMLExtractor that caches images through images.
func New(images core.ImageResolver, opts Options) (*HTMLExtractor, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://medium.com"
	}
	locator, err := NewLocator(opts.BaseURL, opts.Logger)
	if err != nil {
		return nil, err
	}

	e := &HTMLExtractor{
		images:  images,
		locator: locator,
		opts:    opts,
		log:     opts.Logger,
	}
	if opts.Tables {
		e.tables = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	}
	return e, nil
}

// Extract parses page and returns the article as raw (unnormalized) Markdown.
// A page without an <article> element fails with ErrNoArticle.
func (e *HTMLExtractor) Extract(ctx context.Context, page string) (*core.Article, error) {
	e.log.Info("Starting content extraction")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	body := doc.Find("article").First()
	if body.Length() == 0 {
		e.log.Error("Could not find article content")
		return nil, ErrNoArticle
	}

	w := &walker{e: e}
	article := &core.Article{Language: strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		article.Title = strings.TrimSpace(h1.Text())
		if article.Title != "" {
			fmt.Fprintf(&w.b, "# %s\n\n", article.Title)
			e.log.WithField("title", article.Title).Info("Extracted title")
		}
	}

	refs := e.locator.Locate(body)
	w.images, article.Images = e.renderImages(ctx, refs)
	e.log.WithFields(logrus.Fields{
		"located":  len(refs),
		"rendered": len(article.Images),
	}).Info("Processed article images")

	w.walk(body, false)
	article.Markdown = w.b.String()
	return article, nil
}

// renderImages caches every located image and returns the Markdown for each
// anchor that produced one, plus the refs that made it.
func (e *HTMLExtractor) renderImages(ctx context.Context, refs []core.ImageRef) (map[*html.Node]string, []core.ImageRef) {
	type result struct {
		ref core.ImageRef
		md  string
		ok  bool
	}
	results := make([]result, len(refs))

	if e.opts.ImageWorkers > 1 {
		var g errgroup.Group
		g.SetLimit(e.opts.ImageWorkers)
		for i, ref := range refs {
			g.Go(func() error {
				out, md, ok := e.renderImage(ctx, ref)
				results[i] = result{out, md, ok}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, ref := range refs {
			out, md, ok := e.renderImage(ctx, ref)
			results[i] = result{out, md, ok}
		}
	}

	byAnchor := make(map[*html.Node]string, len(refs))
	var rendered []core.ImageRef
	for _, r := range results {
		if !r.ok {
			continue
		}
		byAnchor[r.ref.Anchor] = r.md
		rendered = append(rendered, r.ref)
	}
	return byAnchor, rendered
}

// renderImage caches the image and formats its Markdown. Any failure drops
// the image; the rest of the article is unaffected.
func (e *HTMLExtractor) renderImage(ctx context.Context, ref core.ImageRef) (core.ImageRef, string, bool) {
	local, err := e.images.Resolve(ctx, ref.Src)
	if err != nil {
		e.log.WithFields(logrus.Fields{"url": ref.Src, "error": err}).Warn("Failed to download image")
		return ref, "", false
	}

	ref.Path = e.relativePath(local)
	if ref.Alt == "" {
		ref.Alt = defaultAlt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "![%s](%s)", ref.Alt, ref.Path)
	if ref.Caption != "" {
		fmt.Fprintf(&b, "\n*%s*", ref.Caption)
	}
	b.WriteString("\n\n")
	return ref, b.String(), true
}

// relativePath expresses local relative to RelativeTo with forward slashes.
func (e *HTMLExtractor) relativePath(local string) string {
	root := e.opts.RelativeTo
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return filepath.ToSlash(local)
		}
		root = wd
	}
	abs, err := filepath.Abs(local)
	if err != nil {
		return filepath.ToSlash(local)
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(local)
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// walker accumulates the Markdown of one Extract call.
type walker struct {
	e      *HTMLExtractor
	b      strings.Builder
	images map[*html.Node]string
}

// walk visits the element children of parent in document order. Inside a
// block that already emitted its text (inBlock), only image anchors are
// emitted so nested content does not appear twice.
func (w *walker) walk(parent *goquery.Selection, inBlock bool) {
	parent.Children().Each(func(_ int, child *goquery.Selection) {
		node := child.Get(0)
		if md, ok := w.images[node]; ok {
			w.b.WriteString(md)
			return
		}
		if inBlock {
			w.walk(child, true)
			return
		}

		el, ok := Classify(child)
		if !ok || !el.producesText() || (el.Kind == KindTable && w.e.tables == nil) {
			w.walk(child, false)
			return
		}
		w.e.log.WithField("kind", el.Kind.String()).Debug("Emitting block")
		w.emit(el)
		w.walk(child, true)
	})
}

func (w *walker) emit(el Element) {
	text := strings.TrimSpace(el.Sel.Text())

	switch el.Kind {
	case KindHeading:
		if text == "" {
			return
		}
		fmt.Fprintf(&w.b, "%s %s\n\n", strings.Repeat("#", el.Level), text)

	case KindParagraph:
		if text == "" {
			return
		}
		if code := el.Sel.Find("code").First(); code.Length() > 0 {
			w.b.WriteString(codeSpan(code.Text()))
			w.b.WriteString("\n\n")
			return
		}
		w.b.WriteString(strings.ReplaceAll(text, "*", `\*`))
		w.b.WriteString("\n\n")

	case KindPreformatted:
		fmt.Fprintf(&w.b, "```%s\n%s\n```\n\n", codeLanguage(el.Sel), text)

	case KindBlockquote:
		if text == "" {
			return
		}
		fmt.Fprintf(&w.b, "> %s\n\n", text)

	case KindList:
		items := el.Sel.ChildrenFiltered("li")
		if items.Length() == 0 {
			return
		}
		items.Each(func(i int, li *goquery.Selection) {
			prefix := "* "
			if el.Ordered {
				prefix = fmt.Sprintf("%d. ", i+1)
			}
			w.b.WriteString(prefix + strings.TrimSpace(li.Text()) + "\n")
		})
		w.b.WriteString("\n")

	case KindTable:
		w.emitTable(el.Sel)
	}
}

func (w *walker) emitTable(sel *goquery.Selection) {
	raw, err := goquery.OuterHtml(sel)
	if err != nil {
		w.e.log.WithField("error", err).Warn("Skipping unserializable table")
		return
	}
	md, err := w.e.tables.ConvertString(raw)
	if err != nil {
		w.e.log.WithField("error", err).Warn("Failed to convert table")
		return
	}
	if md = strings.TrimSpace(md); md != "" {
		w.b.WriteString(md + "\n\n")
	}
}

// codeSpan wraps code in backticks, widening the fence when the code itself
// contains backticks.
func codeSpan(code string) string {
	if !strings.Contains(code, "`") {
		return "`" + code + "`"
	}
	fence := "``"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	return fence + " " + code + " " + fence
}
