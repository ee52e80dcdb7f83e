package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/magicpages"
	"github.com/GoCodeAlone/magicpages/internal/demo"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("MagicPages CLI v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

type options struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root command for the magicpages application
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "magicpages",
		Short: "MagicPages CLI - inspect capability dispatch for page types",
		Long: `MagicPages CLI discovers the demo page types, binds their capabilities
to the page lifecycle and shows the result.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	})
	return cmd
}

// session is a started core over the demo store.
type session struct {
	core    *magicpages.MagicPages
	journal *demo.Journal
}

func newLogger(w io.Writer, verbose bool) magicpages.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return magicpages.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// start loads the config, initializes the core over the demo store and runs
// Ready.
func start(ctx context.Context, cmd *cobra.Command, opts *options) (*session, error) {
	cfg, err := magicpages.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	journal := &demo.Journal{}
	core, err := magicpages.New(demo.NewStore(journal),
		magicpages.WithConfig(cfg),
		magicpages.WithLogger(newLogger(cmd.ErrOrStderr(), opts.verbose)),
	)
	if err != nil {
		return nil, err
	}
	if err := core.Init(ctx); err != nil {
		return nil, err
	}
	if err := core.Ready(ctx); err != nil {
		return nil, err
	}
	return &session{core: core, journal: journal}, nil
}
