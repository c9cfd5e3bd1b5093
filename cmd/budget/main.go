package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	apphttp "budget/internal/http"
	"budget/internal/cli"
	"budget/internal/ledger"
	"budget/internal/log"
	appweb "budget/web"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	res := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	tmpl, err := apphttp.ParseTemplates(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed to parse templates", log.FieldError, err)
		os.Exit(1)
	}
	renderer := apphttp.NewHTMLRenderer(tmpl)

	l := ledger.New(res.Store, renderer,
		ledger.WithStorageKey(cfg.StorageKey),
		ledger.WithPersistOnAdd(cfg.PersistOnAdd),
		ledger.WithLogger(logger),
	)
	if err := l.Initialize(ctx, apphttp.LedgerTemplate); err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err, log.FieldStorageKey, cfg.StorageKey)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, l, renderer,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithTrustedProxies(cfg.TrustedProxies),
		apphttp.WithReadinessCheck("store", func(ctx context.Context) error {
			_, _, err := res.Store.Get(ctx, cfg.StorageKey)
			return err
		}),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budget server", "port", cfg.Port, log.FieldBackend, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
