// Package cmd implements the CLI commands for article2md using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaurav-prasanna/article2md/core/config"
	"github.com/gaurav-prasanna/article2md/core/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Settings shared by every command, filled in by PersistentPreRunE.
var (
	cfg config.Config
	log *logrus.Logger
)

// Global flag variables. Flags only override the environment when set.
var (
	flagImageDir   string
	flagCookieFile string
	flagBaseURL    string
	flagLogDir     string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "article2md",
	Short: "article2md: convert online articles into Markdown with local images",
	Long: `article2md fetches an article page (optionally with your browser session
cookie for member-only posts), converts the <article> body to Markdown and
downloads every image into a local directory.

Usage:
  article2md convert <url> [flags]
  article2md serve [--addr :5050]
  article2md cookies set "<cookie string>"`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	defaults := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagImageDir, "image_dir", defaults.ImageDir, "Directory for downloaded images")
	pf.StringVar(&flagCookieFile, "cookie_file", defaults.CookieFile, "File holding the browser cookie string")
	pf.StringVar(&flagBaseURL, "base_url", defaults.BaseURL, "Origin relative image URLs are resolved against")
	pf.StringVar(&flagLogDir, "log_dir", defaults.LogDir, "Directory for rotating log files (empty: stderr only)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// setup resolves the configuration (defaults, environment, flags) and
// builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cfg = config.FromEnv()

	flags := cmd.Flags()
	if flags.Changed("image_dir") {
		cfg.ImageDir = flagImageDir
	}
	if flags.Changed("cookie_file") {
		cfg.CookieFile = flagCookieFile
	}
	if flags.Changed("base_url") {
		cfg.BaseURL = flagBaseURL
	}
	if flags.Changed("log_dir") {
		cfg.LogDir = flagLogDir
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	var err error
	log, err = logging.New(logging.Options{Dir: cfg.LogDir, Verbose: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
