package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/gamelib/internal/api"
	"github.com/pders01/gamelib/internal/debuglog"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var syncOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over HTTP for the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()
			if addr != "" {
				app.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if syncOnStart {
				go func() {
					if _, err := app.manager.SyncAll(ctx); err != nil {
						debuglog.Warnf("initial sync: %v", err)
					}
				}()
			}

			srv := api.New(app.cfg, api.Deps{
				Catalog:  app.client,
				Library:  app.manager,
				Searcher: app.searcher,
				Installs: app.store,
				Logger:   debuglog.L(),
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&syncOnStart, "sync", false, "Sync every platform in the background on start")
	return cmd
}
