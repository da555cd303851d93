// Command injectcored serves the chemical injection operations API: entity
// lifecycle, guarded associations, projections and the advisory endpoint.
package main

import (
	"context"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"injectcore/internal/adapters/advisory"
	"injectcore/internal/adapters/dashboard"
	"injectcore/internal/blob"
	"injectcore/internal/core"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return err
	}
	svc := core.NewService(store,
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(core.NewSlogAuditRecorder(logger)),
	)
	projections := core.NewProjections(store)

	if err := core.SeedSampleData(ctx, svc); err != nil {
		return err
	}

	archive, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	logger.Info("report archive ready", "driver", archive.Driver())

	var generator advisory.Generator
	if openaiGen, genErr := advisory.NewOpenAIGenerator(cfg.AdvisoryKey, cfg.AdvisoryModel); genErr == nil {
		generator = openaiGen
	} else {
		logger.Info("advisory using local generator", "reason", genErr)
		generator = advisory.StaticGenerator{}
	}
	advisor := advisory.NewAdvisor(generator, archive, cfg.AdvisoryTimeout, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", dashboard.NewHandler(svc, projections, advisor.Advise))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
