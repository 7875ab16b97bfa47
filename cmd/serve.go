package cmd

import (
	"github.com/gaurav-prasanna/article2md/server"
	"github.com/spf13/cobra"
)

var (
	flagAddr           string
	flagServeTables    bool
	flagServeOutputDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion service",
	Long: `Serve exposes the converter over HTTP:

  POST /convert       {"url": "...", "filename": "optional.md"}
  POST /auth/cookies  {"cookies": "name=value; ..."}
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default :5050)")
	serveCmd.Flags().BoolVar(&flagServeTables, "tables", false, "Convert <table> elements to Markdown tables")
	serveCmd.Flags().StringVar(&flagServeOutputDir, "output_dir", ".", "Directory for files requested through the filename field")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if cmd.Flags().Changed("tables") {
		cfg.Tables = flagServeTables
	}

	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(p.converter, p.cookies, server.Options{
		CacheTTL:  cfg.CacheTTL,
		OutputDir: flagServeOutputDir,
		Logger:    log,
	})
	return srv.ListenAndServe(cmd.Context(), cfg.Addr)
}
