package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gaurav-prasanna/article2md/core/imagecache"
	"github.com/gaurav-prasanna/article2md/core/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImages resolves URLs into root/images/{fingerprint}{ext} without any
// network traffic. URLs listed in fail return an error.
type fakeImages struct {
	root string
	fail map[string]bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeImages) Resolve(_ context.Context, u string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.mu.Unlock()
	if f.fail[u] {
		return "", errors.New("connection refused")
	}
	return filepath.Join(f.root, "images", imagecache.Fingerprint(u)+imagecache.Extension(u)), nil
}

func newExtractor(t *testing.T, opts Options) (*HTMLExtractor, *fakeImages) {
	t.Helper()
	images := &fakeImages{root: t.TempDir(), fail: map[string]bool{}}
	opts.RelativeTo = images.root
	opts.Logger = logging.Discard()
	e, err := New(images, opts)
	require.NoError(t, err)
	return e, images
}

func imagePath(u string) string {
	return "images/" + imagecache.Fingerprint(u) + imagecache.Extension(u)
}

func TestExtractScenario(t *testing.T) {
	e, _ := newExtractor(t, Options{})

	article, err := e.Extract(context.Background(),
		`<h1>Title</h1><article><p>Hello *world*</p><img src="/a.png"></article>`)
	require.NoError(t, err)

	md := article.Markdown
	assert.True(t, strings.HasPrefix(md, "# Title\n\n"))
	assert.Contains(t, md, `Hello \*world\*`)
	assert.Contains(t, md, "![Image]("+imagePath("https://medium.com/a.png")+")")
	assert.Equal(t, "Title", article.Title)
	require.Len(t, article.Images, 1)
	assert.Equal(t, "https://medium.com/a.png", article.Images[0].Src)
}

func TestExtractImageFailureIsDropped(t *testing.T) {
	e, images := newExtractor(t, Options{})
	images.fail["https://medium.com/a.png"] = true

	article, err := e.Extract(context.Background(),
		`<h1>Title</h1><article><p>Hello *world*</p><img src="/a.png"></article>`)
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nHello \\*world\\*\n\n", article.Markdown)
	assert.Empty(t, article.Images)
}

func TestExtractNoArticle(t *testing.T) {
	e, images := newExtractor(t, Options{})

	article, err := e.Extract(context.Background(), `<h1>Title</h1><div><p>text</p><img src="/a.png"></div>`)

	assert.True(t, errors.Is(err, ErrNoArticle))
	assert.Nil(t, article)
	assert.Empty(t, images.calls)
}

func TestExtractBlocks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "ordered list",
			body: `<ol><li>a</li><li>b</li></ol>`,
			want: "1. a\n2. b\n\n",
		},
		{
			name: "unordered list flattens nested lists",
			body: `<ul><li>one<ul><li>inner</li></ul></li><li> two </li></ul>`,
			want: "* oneinner\n* two\n\n",
		},
		{
			name: "code block with language",
			body: `<pre><code class="hljs language-go">x:=1</code></pre>`,
			want: "```go\nx:=1\n```\n\n",
		},
		{
			name: "code block without language",
			body: `<pre>  plain  </pre>`,
			want: "```\nplain\n```\n\n",
		},
		{
			name: "headings",
			body: `<h2> Part </h2><h3>Sub</h3><h4>Deep</h4>`,
			want: "## Part\n\n### Sub\n\n#### Deep\n\n",
		},
		{
			name: "paragraph with inline code keeps only the code",
			body: `<p>Run <code>go *test*</code> now</p>`,
			want: "`go *test*`\n\n",
		},
		{
			name: "code containing backticks",
			body: "<p><code>a`b</code></p>",
			want: "`` a`b ``\n\n",
		},
		{
			name: "blockquote is emitted once",
			body: `<blockquote><p>line one</p><p>line two</p></blockquote>`,
			want: "> line oneline two\n\n",
		},
		{
			name: "containers are walked",
			body: `<section><div><p>inside</p></div></section><p>after</p>`,
			want: "inside\n\nafter\n\n",
		},
		{
			name: "empty paragraphs are skipped",
			body: `<p>  </p><p>x</p>`,
			want: "x\n\n",
		},
		{
			name: "tables are skipped by default",
			body: `<table><tr><td>cell</td></tr></table>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newExtractor(t, Options{})
			article, err := e.Extract(context.Background(), "<article>"+tt.body+"</article>")
			require.NoError(t, err)
			assert.Equal(t, tt.want, article.Markdown)
		})
	}
}

func TestExtractImagesInPlace(t *testing.T) {
	e, _ := newExtractor(t, Options{})
	page := `<html><body>
<article>
  <section>
    <h1>My Post</h1>
    <p>Before.</p>
    <figure class="paragraph-image">
      <div><picture><img alt=" Chart " src="https://miro.medium.com/max/700/chart.png"></picture></div>
      <figcaption>Figure 1: growth</figcaption>
    </figure>
    <p>Middle.</p>
    <div style="background-image: url('/bg.webp')"></div>
    <p>After <img src="/inline.gif"> text.</p>
  </section>
</article></body></html>`

	article, err := e.Extract(context.Background(), page)
	require.NoError(t, err)

	want := "# My Post\n\n" +
		"# My Post\n\n" +
		"Before.\n\n" +
		"![Chart](" + imagePath("https://miro.medium.com/max/700/chart.png") + ")\n*Figure 1: growth*\n\n" +
		"Middle.\n\n" +
		"![Image](" + imagePath("https://medium.com/bg.webp") + ")\n\n" +
		"After  text.\n\n" +
		"![Image](" + imagePath("https://medium.com/inline.gif") + ")\n\n"
	assert.Equal(t, want, article.Markdown)
	require.Len(t, article.Images, 3)
	assert.True(t, article.Images[1].FromStyle)
}

func TestExtractEmitsEveryBodyHeading(t *testing.T) {
	e, _ := newExtractor(t, Options{})

	article, err := e.Extract(context.Background(), `<article><h1>T</h1><p>x</p><h1>Second</h1></article>`)
	require.NoError(t, err)

	assert.Equal(t, "T", article.Title)
	assert.Equal(t, "# T\n\n# T\n\nx\n\n# Second\n\n", article.Markdown)
}

func TestExtractTables(t *testing.T) {
	e, _ := newExtractor(t, Options{Tables: true})

	article, err := e.Extract(context.Background(),
		`<article><table><thead><tr><th>k</th><th>v</th></tr></thead><tbody><tr><td>a</td><td>1</td></tr></tbody></table></article>`)
	require.NoError(t, err)

	assert.Contains(t, article.Markdown, "| k")
	assert.Contains(t, article.Markdown, "| a")
	assert.NotContains(t, article.Markdown, "a\n\n1")
}

func TestExtractConcurrentImagesKeepOrder(t *testing.T) {
	e, images := newExtractor(t, Options{ImageWorkers: 4})
	var b strings.Builder
	b.WriteString("<article>")
	var want strings.Builder
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		u := "https://cdn.example.com/" + name + ".png"
		b.WriteString(`<p>` + name + `</p><img src="` + u + `">`)
		want.WriteString(name + "\n\n![Image](" + imagePath(u) + ")\n\n")
	}
	b.WriteString("</article>")

	article, err := e.Extract(context.Background(), b.String())
	require.NoError(t, err)

	assert.Equal(t, want.String(), article.Markdown)
	assert.Len(t, images.calls, 6)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(&fakeImages{}, Options{BaseURL: "not a url", Logger: logging.Discard()})
	assert.Error(t, err)
}
