package cmd

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/article2md/core/auth"
	"github.com/spf13/cobra"
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Manage the stored browser session cookie",
}

var cookiesSetCmd = &cobra.Command{
	Use:   "set <cookie-string>",
	Short: "Replace the stored cookie string",
	Long: `Set stores the Cookie header copied from a logged-in browser session
("name=value; other=value") so member-only articles can be converted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := auth.NewCookieStore(cfg.CookieFile, cfg.CookieDomains, log)
		if err != nil {
			return err
		}
		if err := store.Update(strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d cookies to %s\n", len(store.Cookies()), cfg.CookieFile)
		return nil
	},
}

func init() {
	cookiesCmd.AddCommand(cookiesSetCmd)
	rootCmd.AddCommand(cookiesCmd)
}
