package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Varda003/EmoTune/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const cacheReportInterval = 5 * time.Minute

// Serve runs the HTTP API until SIGINT or SIGTERM, then drains in-flight requests.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.config.Server
	if host := cmd.String("host"); host != "" {
		config.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		config.Port = port
	}

	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(config, a.serverDeps(), r.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting emotune api",
		"addr", config.Addr(),
		"catalog", a.catalog != nil,
		"cache", a.cache != nil,
		"smtp", r.config.Mail.SMTPHost != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	if a.cache != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cacheReportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					stats := a.cache.Stats()
					r.logger.Info("cache stats", "hits", stats.Hits, "misses", stats.Misses, "errors", stats.Errors)
				}
			}
		})
	}

	return g.Wait()
}
