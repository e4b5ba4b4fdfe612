package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixheck/bissle/internal/api"
	"github.com/felixheck/bissle/internal/build"
	"github.com/felixheck/bissle/internal/metrics"
	"github.com/felixheck/bissle/internal/routes"
	"github.com/felixheck/bissle/internal/store"
	"github.com/felixheck/bissle/paging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, database, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			reg := routes.New()
			paginator, err := paging.New(cfg.Paging, reg, metrics.Observer{})
			if err != nil {
				return err
			}

			router := api.NewRouter(api.Deps{
				Paginator:    paginator,
				Routes:       reg,
				Items:        store.NewItemStore(database),
				RouteOptions: cfg.Routes,
				Logger:       logger,
			})
			if err := api.CheckRouteOptions(reg, cfg.Routes); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info().
					Str("addr", cfg.HTTP.Addr).
					Str("version", build.Version).
					Bool("absolute_links", cfg.Paging.Absolute).
					Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
