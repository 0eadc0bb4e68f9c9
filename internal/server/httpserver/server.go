// Package httpserver exposes the token protocol and chest records over HTTP
// using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chestkeeper/internal/logging"
	"github.com/dmitrijs2005/chestkeeper/internal/server/config"
	"github.com/dmitrijs2005/chestkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/chestkeeper/internal/server/models"
	"github.com/dmitrijs2005/chestkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// TokenService issues tokens and authenticates raw tokens taken from
// request paths.
type TokenService interface {
	NewToken(ctx context.Context, playerUUID, username string) (string, error)
	AuthenticateToken(ctx context.Context, raw string) (uint64, error)
}

// ChestService records and lists chests for an authenticated user.
type ChestService interface {
	AddChest(ctx context.Context, userID uint64, pos models.Position, level int16) (*services.ChestView, error)
	ListChests(ctx context.Context, userID uint64) ([]services.ChestView, error)
}

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	tokens          TokenService
	chests          ChestService
	metrics         *metrics.Metrics
	limiters        *limiterRegistry
	logger          logging.Logger
	trustedProxies  []string
	router          *gin.Engine
}

func NewHTTPServer(c *config.Config, l logging.Logger, ts TokenService, cs ChestService, m *metrics.Metrics) *HTTPServer {
	s := &HTTPServer{
		address:         c.EndpointAddrHTTP,
		shutdownTimeout: c.ShutdownTimeout,
		tokens:          ts,
		chests:          cs,
		metrics:         m,
		trustedProxies:  c.TrustedProxies,
		logger:          l.With("module", "http_server"),
	}
	if c.NewTokenRate > 0 {
		s.limiters = newLimiterRegistry(c.NewTokenRate, c.NewTokenBurst)
	}
	s.router = s.newRouter()
	return s
}

func (s *HTTPServer) newRouter() *gin.Engine {
	r := gin.New()

	// ClientIP keys the rate limit; only configured proxies may set it.
	if err := r.SetTrustedProxies(s.trustedProxies); err != nil {
		s.logger.Warn(context.Background(), "invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/newtoken/:uuid/:username", s.rateLimit(s.limiters), s.newToken)

	protected := r.Group("/", s.tokenAuth())
	protected.GET("/verify/:token", s.verify)
	protected.POST("/chest/:token", s.addChest)
	protected.GET("/chests/:token", s.listChests)

	r.NoRoute(s.notFound)
	return r
}

// Handler returns the routed http.Handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
