package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var suggestDataType string

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "Look up value suggestions (ISBN, OCLC, LCCN, OLID or free text)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.suggesters.Suggest(ctx, suggestDataType, strings.Join(args, " "))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(res) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No results."))
		return nil
	}
	for _, s := range res {
		fmt.Fprintln(out, titleStyle.Render(s.Value))
		fmt.Fprintln(out, "  "+s.Data.URI)
		if s.Data.Info != "" {
			fmt.Fprintln(out, "  "+mutedStyle.Render(s.Data.Info))
		}
	}
	return nil
}
