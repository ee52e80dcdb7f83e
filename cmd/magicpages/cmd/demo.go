package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/magicpages/internal/demo"
	"github.com/GoCodeAlone/magicpages/page"
)

// NewDemoCommand creates the demo command, which saves a report page and
// prints the capability calls it caused.
func NewDemoCommand(opts *options) *cobra.Command {
	var title, date string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Save a demo report page and show the lifecycle calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := start(ctx, cmd, opts)
			if err != nil {
				return err
			}
			store, ok := rt.core.Store().(*page.Pages)
			if !ok {
				return fmt.Errorf("unexpected store %T", rt.core.Store())
			}

			p := store.NewPage(store.Template(demo.TemplateReport))
			if err := p.Set(ctx, "report_title", title); err != nil {
				return err
			}
			if date != "" {
				if err := p.Set(ctx, "report_date", date); err != nil {
					return err
				}
			}
			if err := store.Save(ctx, p); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "saved page %d as %q\n", p.ID(), p.Name())
			if v, err := p.Call(ctx, "date", 2); err == nil {
				fmt.Fprintf(out, "date(2) = %v\n", v)
			}
			for _, e := range rt.journal.Entries() {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "Quarterly Report", "report title")
	cmd.Flags().StringVar(&date, "date", "", "report date")
	return cmd
}
