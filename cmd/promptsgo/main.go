package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/config"
	"github.com/promptsgo/promptsgo/internal/domain"
	logpkg "github.com/promptsgo/promptsgo/internal/logger"
	"github.com/promptsgo/promptsgo/internal/metrics"
	budgetrepo "github.com/promptsgo/promptsgo/internal/repository/budget"
	engagementrepo "github.com/promptsgo/promptsgo/internal/repository/engagement"
	promptrepo "github.com/promptsgo/promptsgo/internal/repository/prompt"
	"github.com/promptsgo/promptsgo/internal/storage"
	chiTransport "github.com/promptsgo/promptsgo/internal/transport/chi"
	openaiTransport "github.com/promptsgo/promptsgo/internal/transport/openai"
	engagementuc "github.com/promptsgo/promptsgo/internal/usecase/engagement"
	healthuc "github.com/promptsgo/promptsgo/internal/usecase/health"
	playgrounduc "github.com/promptsgo/promptsgo/internal/usecase/playground"
	promptuc "github.com/promptsgo/promptsgo/internal/usecase/prompt"
	searchuc "github.com/promptsgo/promptsgo/internal/usecase/search"
	usageuc "github.com/promptsgo/promptsgo/internal/usecase/usage"
	"github.com/promptsgo/promptsgo/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting promptsgo API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := storage.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Registered explicitly, no init().
	metrics.RegisterCompletionMetrics()
	metrics.RegisterSearchMetrics()

	prompts := promptrepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix)
	reactions := engagementrepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix)

	promptSvc := promptuc.New(prompts, reactions)
	engagementSvc := engagementuc.New(reactions, prompts)
	searchSvc := searchuc.New(prompts, reactions).
		WithPageSizes(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize).
		WithWordRatio(cfg.Search.FuzzyWordRatio).
		WithSuggestLimit(cfg.Search.SuggestLimit).
		WithTopTags(cfg.Search.TopTags)

	pg := &cfg.Playground
	var budget *playgrounduc.BudgetTracker
	if pg.Budget.DailyTokenLimit > 0 || pg.Budget.MonthlyTokenLimit > 0 {
		action := playgrounduc.BudgetActionWarn
		if pg.Budget.Action == "reject" {
			action = playgrounduc.BudgetActionReject
		}
		budget = playgrounduc.NewBudgetTracker(
			pg.Provider, pg.Budget.DailyTokenLimit, pg.Budget.MonthlyTokenLimit, action, logger,
		).WithKeyPrefix(cfg.Storage.KeyPrefix)
		budget.WithStore(ctx, budgetrepo.New(store))
	}

	// A nil *BudgetTracker wrapped in an interface is not nil.
	var budgetChecker playgrounduc.BudgetChecker
	var budgetReader usageuc.WindowReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	healthSvc := healthuc.New(store)

	var completer domain.Completer
	if pg.Enabled() {
		base := openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   pg.APIKey,
			BaseURL:  pg.BaseURL,
			Provider: pg.Provider,
			Timeout:  time.Duration(pg.TimeoutSec) * time.Second,
			Logger:   logger,
		})
		completer = playgrounduc.NewInstrumentedCompleter(base, pg.Provider, budgetChecker, logger)
		healthSvc.WithCheck("completion", base)
		logger.Info("Playground enabled",
			zap.String("provider", pg.Provider),
			zap.String("model", pg.Model),
		)
	} else {
		logger.Info("Playground disabled: no API key configured")
	}

	playgroundSvc := playgrounduc.New(promptSvc, completer, playgrounduc.Options{
		Model:       pg.Model,
		System:      pg.SystemPrompt,
		MaxTokens:   pg.MaxTokens,
		Temperature: pg.Temperature,
	})
	usageSvc := usageuc.New(budgetReader, pg.Provider)

	server := chiTransport.NewServer(
		searchSvc, promptSvc, engagementSvc, playgroundSvc, usageSvc, healthSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.Handler(server, chiTransport.RouterOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// One line per request.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("viewer_id", r.Header.Get(chiTransport.ViewerHeader)),
			)
		})
	}
}
