// Package server wires the chestkeeper application together: storage,
// migrations, the unverified token cache, the identity authority client and
// the HTTP server. It also handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chestkeeper/internal/logging"
	"github.com/dmitrijs2005/chestkeeper/internal/server/auth"
	"github.com/dmitrijs2005/chestkeeper/internal/server/authority"
	"github.com/dmitrijs2005/chestkeeper/internal/server/config"
	"github.com/dmitrijs2005/chestkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/chestkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/chestkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chestkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	cache        *auth.UnverifiedTokenCache
	metrics      *metrics.Metrics
	tokenService *services.TokenService
	chestService *services.ChestService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	cache := auth.NewUnverifiedTokenCache(c.UnverifiedTokenTTL)
	sessions := authority.NewSessionServer(c.SessionServerURL, c.AuthorityTimeout)

	ts := services.NewTokenService(db, rm, cache, sessions, logger, c)
	cs := services.NewChestService(db, rm, logger)

	return &App{
		config:       c,
		logger:       logger,
		db:           db,
		cache:        cache,
		metrics:      metrics.New(cache),
		tokenService: ts,
		chestService: cs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	gin.SetMode(gin.ReleaseMode)
	s := httpserver.NewHTTPServer(app.config, app.logger, app.tokenService, app.chestService, app.metrics)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// sweepTokens evicts expired unverified tokens once per TTL so an idle
// server does not hold stale entries until the next request.
func (app *App) sweepTokens(ctx context.Context) {
	interval := app.cache.TTL()
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.cache.CleanUp(); n > 0 {
				app.logger.Debug(ctx, "expired unverified tokens evicted", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sweepTokens(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
