package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/finanza/finanza-api/internal/advice"
	"github.com/finanza/finanza-api/internal/auth"
	"github.com/finanza/finanza-api/internal/config"
	"github.com/finanza/finanza-api/internal/middleware"
	"github.com/finanza/finanza-api/internal/persistence"
	"github.com/finanza/finanza-api/internal/service"
	"github.com/finanza/finanza-api/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)
	if cfg.UsesDevSecret() {
		logger.Warn("SECRET_KEY not set, using the development secret; tokens are forgeable")
	}
	if cfg.DebugResetCodes {
		logger.Warn("DEBUG_RESET_CODES is on, reset codes are returned to callers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: durable backend if reachable, in-memory otherwise
	store := persistence.Open(ctx, persistence.Options{
		URL:          cfg.DatabaseURL,
		Database:     cfg.DatabaseName,
		ProbeTimeout: cfg.ProbeTimeout,
	}, logger)
	defer store.Close()

	// Auth
	creds := auth.NewCredentialStore(0)
	authenticator, err := auth.NewPasswordAuthenticator(store.Users(), creds)
	if err != nil {
		logger.Error("Failed to initialize authenticator", "error", err)
		os.Exit(1)
	}
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.TokenTTL)
	reset := auth.NewResetFlow(store.Users(), store.ResetCodes(), creds, logger, auth.WithResetTTL(cfg.ResetCodeTTL))

	// Advice
	var provider advice.Provider = advice.Unavailable{}
	if cfg.OpenAIAPIKey != "" {
		provider = advice.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger)
	} else {
		logger.Info("OPENAI_API_KEY not set, chat will report the advisor as unavailable")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	service.Register(mux, service.Services{
		Auth:         service.NewAuthService(authenticator, tokens, reset, logger, service.WithDebugResetCodes(cfg.DebugResetCodes)),
		Transactions: service.NewTransactionService(store.Transactions(), logger),
		Budgets:      service.NewBudgetService(store.Budgets(), store.Transactions(), logger),
		Chat:         service.NewChatService(store.Transactions(), provider, logger),
	}, service.RouteOptions{
		Tokens:  tokens,
		Logger:  logger,
		Metrics: middleware.NewMetrics(registry),
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", healthHandler(store))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.Logging(logger, middleware.CORS(mux)), &http2.Server{})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", cfg.Addr, "backend", store.Backend())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
		reset.Wait()
	}
}

// healthHandler reports whether the backend answers. It does not name the
// backend; which one was selected is only visible in the startup log.
func healthHandler(store *persistence.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
