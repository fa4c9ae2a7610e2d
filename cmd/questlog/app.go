package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/questlog/questlog/internal/cache"
	"github.com/questlog/questlog/internal/db"
	"github.com/questlog/questlog/internal/handlers"
	"github.com/questlog/questlog/internal/handlers/middleware"
	"github.com/questlog/questlog/internal/kv"
	"github.com/questlog/questlog/internal/logger"
	"github.com/questlog/questlog/internal/ratelimit"
	"github.com/questlog/questlog/internal/repository/postgres"
	"github.com/questlog/questlog/internal/service/auth"
	"github.com/questlog/questlog/internal/service/auth/tokenmanager"
	"github.com/questlog/questlog/internal/service/board"
	"github.com/questlog/questlog/internal/service/progress"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Redis backs version vectors, cached views and rate windows
	rdb, err := kv.Connect(ctx, c.RedisAddr)
	if err != nil {
		return nil, err
	}

	storage := postgres.NewStorage(pool)

	versions := cache.NewVersions(rdb, c.Namespace, c.Environment)
	viewCache := cache.New(rdb, versions, c.Namespace, c.Environment, log)
	limiter := ratelimit.New(rdb, ratelimit.Config{Salt: c.LimiterSalt}, c.Namespace, c.Environment, log)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{
		CookieSecure: c.Environment == logger.EnvProduction,
	}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	progressService := progress.NewService(storage, viewCache, versions, log)
	boardService := board.NewService(storage, viewCache, versions, progressService, log)

	mux := handlers.NewRouter(
		handlers.NewAuth(authService, limiter, log),
		handlers.NewBoard(boardService, log),
		handlers.NewProgress(progressService, log),
		middleware.AuthMiddleware(authService),
		middleware.LoggerMiddleware(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts the http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close connections gracefully
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
