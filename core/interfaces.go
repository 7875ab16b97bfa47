// Package core defines the pipeline interfaces and shared types for article2md.
// Each stage of the pipeline is a small, testable interface.
package core

import (
	"context"

	"golang.org/x/net/html"
)

// FetchResult holds the raw body and response metadata from a fetch.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// HTML returns the body as a string.
func (r *FetchResult) HTML() string {
	return string(r.Body)
}

// PageMetadata holds metadata extracted from the page and URL.
type PageMetadata struct {
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	FetchedAt string `json:"fetched_at"` // ISO8601
}

// ImageRef is one image located in an article body.
type ImageRef struct {
	Src     string `json:"src"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
	// Path is the cached file, relative to the conversion's working directory.
	// Empty until the image has been resolved.
	Path string `json:"path,omitempty"`
	// FromStyle marks a source pulled out of an inline background-image
	// declaration. Those are pattern matched, not read from a tag.
	FromStyle bool `json:"from_style,omitempty"`

	// Anchor is the element the image was found on (img, figure or div).
	Anchor *html.Node `json:"-"`
}

// Article is the result of converting one page.
type Article struct {
	URL      string     `json:"url"`
	Title    string     `json:"title"`
	Language string     `json:"language,omitempty"`
	Markdown string     `json:"markdown"`
	Images   []ImageRef `json:"images"`
}

// Section represents a heading-delimited section of content.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// Heading represents a single heading found in the content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link represents a hyperlink found in the content.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image is an image reference as it appears in the final Markdown.
type Image struct {
	Alt     string `json:"alt"`
	Path    string `json:"path"`
	Caption string `json:"caption,omitempty"`
}

// PageContent holds the text and structured content of a page.
type PageContent struct {
	Text     string    `json:"text"`
	Markdown string    `json:"markdown"`
	Sections []Section `json:"sections"`
}

// PageStructure holds structural metadata parsed from the content.
type PageStructure struct {
	Headings   []Heading `json:"headings"`
	Links      []Link    `json:"links"`
	Images     []Image   `json:"images"`
	CodeBlocks int       `json:"code_blocks"`
	Tables     int       `json:"tables"`
	Quotes     int       `json:"quotes"`
	Lists      int       `json:"lists"`
}

// PageJSON is the complete JSON output for a single article.
type PageJSON struct {
	Metadata  PageMetadata  `json:"metadata"`
	Content   PageContent   `json:"content"`
	Structure PageStructure `json:"structure"`
}

// Fetcher retrieves a resource (page or image) from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Credentials supplies the Cookie header value for requests to a host.
// An empty string means the request goes out unauthenticated.
type Credentials interface {
	CookieHeader(domain string) string
}

// ImageResolver maps an image URL to a locally cached file path.
type ImageResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Extractor converts a fetched article page into raw Markdown.
type Extractor interface {
	Extract(ctx context.Context, html string) (*Article, error)
}

// Normalizer cleans up raw Markdown produced by an Extractor.
type Normalizer interface {
	Normalize(markdown string) string
}

// Renderer converts Markdown (and metadata) into a final output format.
type Renderer interface {
	Render(markdown string, meta PageMetadata) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
