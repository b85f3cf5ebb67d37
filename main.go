package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/friendconnect/internal/config"
	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/handler"
	"github.com/msomdec/friendconnect/internal/repository/memory"
	"github.com/msomdec/friendconnect/internal/repository/sqlite"
	"github.com/msomdec/friendconnect/internal/service"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()

	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("store ready", "driver", cfg.Store.Driver)

	if cfg.SeedDemo {
		if err := service.SeedDemoData(context.Background(), db, cfg.Auth.BcryptCost); err != nil {
			slog.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("demo data seeded")
	}

	broker := service.NewBroker()
	authService := service.NewAuthService(db.Users(), cfg.Auth.JWTSecret, cfg.Auth.BcryptCost)
	userService := service.NewUserService(db.Users())
	friendService := service.NewFriendService(db.Users(), db.FriendRequests())
	conversationService := service.NewConversationService(db.Conversations(), db.Users(), broker)

	authLimiter := service.NewTokenBucket(cfg.Limits.Rate, cfg.Limits.Burst)
	defer authLimiter.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, userService, friendService, conversationService, authLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open event streams end with the server's base context.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")
	cancelStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStore(cfg config.Store) (domain.Database, error) {
	if cfg.Driver == config.DriverSQLite {
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return memory.New(), nil
}
