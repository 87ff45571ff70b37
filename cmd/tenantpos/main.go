package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/tenantpos/internal/adapter/auth"
	"github.com/neomorfeo/tenantpos/internal/adapter/fsm"
	oteladapter "github.com/neomorfeo/tenantpos/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/tenantpos/internal/adapter/river"
	"github.com/neomorfeo/tenantpos/internal/adapter/sqlite"
	"github.com/neomorfeo/tenantpos/internal/app"
	"github.com/neomorfeo/tenantpos/internal/domain"

	handler "github.com/neomorfeo/tenantpos/internal/adapter/http"
)

const (
	serviceName    = "tenantpos"
	serviceVersion = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("tenantpos stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may be set another way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := oteladapter.Setup(ctx, oteladapter.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	queue, err := riveradapter.Setup(ctx, db, riveradapter.Options{
		Logger:  logger,
		Workers: cfg.AuditWorkers,
	})
	if err != nil {
		return fmt.Errorf("audit queue: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("starting audit queue: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			logger.Error("audit queue shutdown", "error", err)
		}
	}()

	publisher := oteladapter.NewTracingPublisher(riveradapter.NewPublisher(queue))

	// --- Adapters (in) ---
	router, err := newRouter(oteladapter.NewTracingStore(store), publisher, cfg)
	if err != nil {
		return err
	}

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("tenantpos listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// newRouter wires the application services onto a chi router serving the
// Huma API.
func newRouter(store domain.Store, publisher domain.EventPublisher, cfg config) (http.Handler, error) {
	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}

	// --- Application ---
	clock := domain.SystemClock{}
	validator := fsm.New()
	slugs := app.NewSlugAllocator(store, publisher, clock)
	retirer := app.NewRetirementCoordinator(store, publisher, clock)

	services := handler.Services{
		Slugs:        slugs,
		Applications: app.NewApplicationWorkflow(store, validator, auth.Hasher{}, publisher, clock, cfg.Defaults),
		Branches:     app.NewBranchLedger(store, validator, publisher, clock),
		Governance:   app.NewGovernance(store, slugs, retirer, publisher, clock),
		Access:       app.NewAccessResolver(store, publisher, clock),
		Tokens:       tokens,
		Clock:        clock,
		TokenTTL:     cfg.TokenTTL,
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig(serviceName, serviceVersion))
	handler.Register(api, services)

	return router, nil
}

func newLogger(w io.Writer, format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
