// Package cmd: convert command.
// This is the main command that orchestrates the pipeline:
// fetch → extract → normalize → render → write.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/gaurav-prasanna/article2md/core/convert"
	"github.com/gaurav-prasanna/article2md/core/output"
	"github.com/gaurav-prasanna/article2md/core/render"
	"github.com/gaurav-prasanna/article2md/crawl"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagPDF          bool
	flagMarkdown     bool
	flagJSON         bool
	flagHTML         bool
	flagOutput       string
	flagOutputDir    string
	flagTables       bool
	flagImageWorkers int
	flagAll          bool
	flagMaxArticles  int
)

var convertCmd = &cobra.Command{
	Use:   "convert <url>",
	Short: "Convert an article URL to Markdown (or JSON, HTML, PDF)",
	Long: `Convert fetches an article, downloads its images into the image directory
and writes the article as Markdown. Other formats are rendered from that Markdown.

Examples:
  article2md convert https://medium.com/@user/post-1a2b
  article2md convert https://medium.com/@user/post-1a2b -o post.md
  article2md convert https://medium.com/@user/post-1a2b --json --output_dir ./out
  article2md convert https://medium.com/@user/post-1a2b --pdf --tables --image_workers 4
  article2md convert https://medium.com/@user --all --output_dir ./posts`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Output format flags (mutually exclusive, Markdown by default).
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown (default)")
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")
	convertCmd.Flags().BoolVar(&flagHTML, "html", false, "Output a standalone HTML document")
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF with embedded images")

	convertCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default: derived from the URL)")
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	convertCmd.Flags().BoolVar(&flagTables, "tables", false, "Convert <table> elements to Markdown tables")
	convertCmd.Flags().IntVar(&flagImageWorkers, "image_workers", 0, "Parallel image downloads (default: from config)")

	// Batch mode.
	convertCmd.Flags().BoolVar(&flagAll, "all", false, "Treat the URL as a profile, publication or sitemap and convert every article it lists")
	convertCmd.Flags().IntVar(&flagMaxArticles, "max_articles", 50, "Maximum number of articles converted with --all")
}

func runConvert(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}
	if flagOutput != "" && flagOutputDir != "" {
		return fmt.Errorf("-o and --output_dir are mutually exclusive")
	}

	if cmd.Flags().Changed("tables") {
		cfg.Tables = flagTables
	}
	if flagImageWorkers > 0 {
		cfg.ImageWorkers = flagImageWorkers
	}

	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}

	if flagAll {
		if flagOutput != "" {
			return fmt.Errorf("-o cannot be used with --all, use --output_dir")
		}
		return runAll(cmd, rawURL, p, renderer)
	}

	path, images, err := convertOne(cmd.Context(), rawURL, p, renderer, flagOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Written: %s (%d images)\n", path, images)
	return nil
}

// runAll discovers the articles listed at rawURL and converts each one.
// A failed article is reported and skipped.
func runAll(cmd *cobra.Command, rawURL string, p *pipeline, renderer core.Renderer) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Discovering articles from %s...\n", rawURL)

	urls, err := crawl.Discover(cmd.Context(), rawURL, p.fetcher, crawl.Options{
		MaxArticles: flagMaxArticles,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("discovering articles: %w", err)
	}
	fmt.Fprintf(out, "Found %d articles to convert\n", len(urls))

	var errCount int
	for i, articleURL := range urls {
		fmt.Fprintf(out, "[%d/%d] Converting %s\n", i+1, len(urls), articleURL)
		path, images, err := convertOne(cmd.Context(), articleURL, p, renderer, "")
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ Error: %v\n", err)
			errCount++
			continue
		}
		fmt.Fprintf(out, "  ✓ Written: %s (%d images)\n", path, images)
	}

	if errCount > 0 {
		return fmt.Errorf("%d/%d articles failed", errCount, len(urls))
	}
	return nil
}

// convertOne converts rawURL, renders it and writes it to dest, or to a
// URL-derived name in the output directory when dest is empty.
func convertOne(ctx context.Context, rawURL string, p *pipeline, renderer core.Renderer, dest string) (string, int, error) {
	article, err := p.converter.Article(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}

	data, err := renderer.Render(article.Markdown, convert.Metadata(article, time.Now()))
	if err != nil {
		return "", 0, fmt.Errorf("render: %w", err)
	}

	if dest != "" {
		if err := output.WriteFile(dest, data); err != nil {
			return "", 0, err
		}
	} else {
		writer, err := output.New(flagOutputDir)
		if err != nil {
			return "", 0, fmt.Errorf("initializing output writer: %w", err)
		}
		if dest, err = writer.Write(rawURL, data, renderer.Extension()); err != nil {
			return "", 0, err
		}
	}

	log.WithField("file", dest).Info("Successfully saved output")
	return dest, len(article.Images), nil
}

// selectRenderer creates the Renderer chosen by the format flags.
func selectRenderer() (core.Renderer, error) {
	formatCount := 0
	for _, set := range []bool{flagMarkdown, flagJSON, flagHTML, flagPDF} {
		if set {
			formatCount++
		}
	}
	if formatCount > 1 {
		return nil, fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	switch {
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagHTML:
		return render.NewHTMLRenderer(), nil
	case flagPDF:
		// Image paths in the Markdown are relative to the working directory.
		return render.NewPDFRenderer(""), nil
	default:
		return render.NewMarkdownRenderer(), nil
	}
}
