package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nkiryanov/savingapp/internal/db"
	"github.com/nkiryanov/savingapp/internal/handlers"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/repository"
	"github.com/nkiryanov/savingapp/internal/repository/postgres"
	"github.com/nkiryanov/savingapp/internal/repository/redis"
	"github.com/nkiryanov/savingapp/internal/service/access"
	"github.com/nkiryanov/savingapp/internal/service/account"
	"github.com/nkiryanov/savingapp/internal/service/auth"
	"github.com/nkiryanov/savingapp/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/savingapp/internal/service/dashboard"
	"github.com/nkiryanov/savingapp/internal/service/ledger"
	"github.com/nkiryanov/savingapp/internal/service/revocation"
	"github.com/nkiryanov/savingapp/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Nil when revoked tokens expire by themselves (redis)
	sweeper *revocation.Sweeper

	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	var err error
	app := &ServerApp{ListenAddr: c.ListenAddr}

	// Release what is opened already if initialization fails
	initialized := false
	defer func() {
		if !initialized {
			app.Close()
		}
	}()

	// Initialize logger
	app.logger, err = logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	storage := postgres.NewStorage(pool)

	registry, err := app.revocationRegistry(ctx, c, pool)
	if err != nil {
		return nil, err
	}

	// Initialize services
	hasher := auth.DefaultHasher
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		Issuer:     c.JWTIssuer,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}, registry)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{Hasher: hasher}, tokenManager, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(hasher, storage)

	if c.AdminEmail != "" {
		created, err := userService.EnsureAdmin(ctx, c.AdminEmail, c.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("error while creating admin. Err: %w", err)
		}
		if created {
			app.logger.Info("Admin user created", "email", c.AdminEmail)
		}
	}

	app.Handler = handlers.NewRouter(
		handlers.Config{AllowedOrigins: c.CORSOrigins},
		handlers.Services{
			Auth:         authService,
			Users:        userService,
			Accounts:     account.NewService(storage, app.logger),
			Access:       access.NewChecker(storage.Account()),
			Poster:       ledger.NewPoster(storage, app.logger),
			Transactions: ledger.NewQuery(storage),
			Dashboard:    dashboard.NewService(storage),
		},
		app.logger,
	)

	initialized = true
	return app, nil
}

// Redis registry if configured, otherwise postgres one cleaned by the sweeper
func (app *ServerApp) revocationRegistry(ctx context.Context, c *Config, pool *pgxpool.Pool) (repository.RevocationRepo, error) {
	if c.RedisURL == "" {
		registry := &postgres.RevocationRepo{DB: pool}

		sweeper, err := revocation.NewSweeper(registry, c.SweepSchedule, app.logger)
		if err != nil {
			return nil, err
		}
		app.sweeper = sweeper
		return registry, nil
	}

	opts, err := goredis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url. Err: %w", err)
	}
	client := goredis.NewClient(opts)
	app.closers = append(app.closers, func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis is not reachable. Err: %w", err)
	}

	app.logger.Info("Revoked tokens are kept in redis")
	return redis.NewRevocationRepo(client, ""), nil
}

// Run starts http server and closes gracefully on context cancellation
func (app *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    app.ListenAddr,
		Handler: app.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	var sweeperStopped <-chan struct{}
	if app.sweeper != nil {
		sweeperStopped = app.sweeper.Run(srvCtx)
	}

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			app.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		app.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	app.logger.Info("Starting server", "address", app.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	if app.sweeper != nil {
		<-sweeperStopped
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close releases db and redis connections
func (app *ServerApp) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
