package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/magicpages"
)

type inspectReport struct {
	Enabled       bool                      `json:"enabled"`
	Types         []magicpages.TypeInfo     `json:"types"`
	Subscriptions []magicpages.Subscription `json:"subscriptions"`
	Watched       []magicpages.WatchedFile  `json:"watched"`
}

// NewInspectCommand creates the inspect command
func NewInspectCommand(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show discovered page types, capabilities and subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := start(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if !asJSON {
				magicpages.DebugTypes(cmd.OutOrStdout(), rt.core)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(inspectReport{
				Enabled:       rt.core.Enabled(),
				Types:         rt.core.Registry().Types(),
				Subscriptions: rt.core.Binder().Subscriptions(),
				Watched:       rt.core.Migrations().Watched(),
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}
