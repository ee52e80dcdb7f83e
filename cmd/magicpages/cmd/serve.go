package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/magicpages"
)

// NewServeCommand creates the serve command, which exposes the debug handler
// and runs the migration watcher until interrupted.
func NewServeCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve introspection endpoints and watch page sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := start(ctx, cmd, opts)
			if err != nil {
				return err
			}

			go func() {
				if err := rt.core.Migrations().Run(ctx); err != nil {
					cmd.PrintErrln("migration watcher:", err)
				}
			}()

			srv := &http.Server{
				Addr:              addr,
				Handler:           magicpages.DebugHandler(rt.core),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			cmd.Printf("serving on %s\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8089", "listen address")
	return cmd
}
