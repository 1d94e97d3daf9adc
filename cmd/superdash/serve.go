package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"superdash/internal/amqp"
	"superdash/internal/cli"
	"superdash/internal/export"
	apphttp "superdash/internal/http"
	"superdash/internal/log"
	"superdash/internal/middleware/ratelimit"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from PORT)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	cfg, logger := a.cfg, a.logger
	ctx, cancel := cli.GracefulShutdown(parent, logger)
	defer cancel()

	state, err := cli.OpenState(ctx, cfg, logger)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return err
	}

	var publisher amqp.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Downloads work without events; the broker may come up later.
			logger.Warn("AMQP unavailable, export events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		State:     state,
		Format:    format,
		Logger:    logger,
		Publisher: publisher,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		DownloadLimit: ratelimit.Config{
			Requests: cfg.DownloadRateLimit,
			Window:   cfg.DownloadRateWindow,
		},
	})
	if err != nil {
		return err
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting superdash server",
			"port", cfg.Port,
			"data_source", cfg.DataSource,
			"export_events", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}
