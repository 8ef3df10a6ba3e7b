package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle. Keeping
// the logic out of main ensures deferred cleanup (database close, HTTP
// shutdown) executes on every exit path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	// 2. Durable store (BadgerDB)
	db, err := repositories.OpenDB(config.BadgerFilepath, log)
	if err != nil {
		return fmt.Errorf("store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing store...")
		_ = db.Close()
	}()

	// 3. Core wiring
	secret := []byte(config.JWTSecret)
	registry := runtime.NewRegistry()
	history := repositories.NewHistoryRepository(db, log, config.HistoryLimit)
	monitor := observability.NewMonitor(log)
	relay := runtime.NewRelay(log, registry, history, monitor)

	chatService := services.NewChatService(relay)
	authService := services.NewAuthService(repositories.NewUserRepository(db), secret, config.TokenTTL)

	// 4. HTTP surface
	wsHandler := ws.NewHandler(chatService, secret, config.SendBufferSize, log)
	authHandler := httpapi.NewAuthHandler(authService, log)
	statsHandler := httpapi.NewStatsHandler(relay, log)
	router := httpapi.NewRouter(authHandler, wsHandler, statsHandler, secret, config.FrontendDir)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: router,
	}

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go monitor.Listen(ctx, config.MetricInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Relay listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
