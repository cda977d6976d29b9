package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/artifacts"
	httpadapter "github.com/couchcryptid/bird-detect-etl/internal/adapter/http"
	"github.com/couchcryptid/bird-detect-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and the read-only presentation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := os.MkdirAll(a.layout.AnalyticsDir, 0o755); err != nil {
		return fmt.Errorf("create analytics directory: %w", err)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if a.cfg.MapboxEnabled {
		client := mapbox.NewClient(a.cfg.MapboxToken, a.cfg.MapboxTimeout, a.metrics, a.logger)
		geocoder = mapbox.NewCachedGeocoder(client, a.cfg.ArtifactCacheSize)
		a.logger.Info("mapbox geocoding enabled", "timeout", a.cfg.MapboxTimeout)
	} else {
		a.logger.Info("mapbox geocoding disabled")
	}

	reader := artifacts.NewCachedReader(artifacts.NewReader(a.layout, a.store, a.logger), a.cfg.ArtifactCacheSize, a.metrics)
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, reader, httpadapter.Options{
		DefaultMonitor: a.cfg.MonitorName,
		Resolver:       a.resolver(),
		Geocoder:       geocoder,
	}, a.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}
