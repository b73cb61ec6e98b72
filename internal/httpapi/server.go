// Package httpapi serves the category tables over a read-only JSON API
// guarded by API keys.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/db"
	"github.com/CyanTarantula/trend-pulse/internal/globaltime"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

const DefaultCacheTTL = 15 * time.Minute

// TableReader reads a stored category table, header included.
type TableReader interface {
	ReadTable(ctx context.Context, category signal.Category) ([][]string, error)
}

// KeyStore looks up issued API keys.
type KeyStore interface {
	GetActiveAPIKeyByPrefix(ctx context.Context, prefix string) (*db.APIKey, error)
	TouchAPIKey(ctx context.Context, apiKeyID int64) error
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// CacheTTL bounds how stale a served snapshot may be. Zero uses the
	// default.
	CacheTTL time.Duration
	// StaticKeys are accepted in addition to stored keys.
	StaticKeys []string
}

type Server struct {
	tables TableReader
	keys   KeyStore
	cache  *cache.Cache
	logger zerolog.Logger
	opts   Options
}

func NewServer(tables TableReader, keys KeyStore, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &Server{
		tables: tables,
		keys:   keys,
		cache:  cache.New(cacheTTL, 2*cacheTTL),
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			CacheTTL:        cacheTTL,
			StaticKeys:      append([]string(nil), opts.StaticKeys...),
		},
	}
}

// Handler builds the routed echo instance.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", apiKeyHeader},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			if v.Error != nil {
				event = s.logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", redactKey(v.URI)).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)

	trends := api.Group("/trends", s.requireAPIKey())
	trends.GET("", s.handleTrends)
	trends.GET("/:category", s.handleCategoryTrends)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.tables == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.Handler()
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Dur("cache_ttl", s.opts.CacheTTL).Msg("trend api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("trend api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = serverError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message)
}

// pinger is implemented by table stores that can report their own health.
type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleHealth(c echo.Context) error {
	status := map[string]any{
		"service": "trend-pulse",
		"time":    globaltime.UTC(),
	}
	if store, ok := s.tables.(pinger); ok {
		if err := store.Ping(c.Request().Context()); err != nil {
			s.logger.Error().Err(err).Msg("health ping failed")
			return c.JSON(http.StatusServiceUnavailable, envelope{
				Status:  statusError,
				Message: "Table store unavailable",
				Code:    http.StatusServiceUnavailable,
			})
		}
		status["store"] = "ok"
	}
	return success(c, status)
}

// redactKey hides the value of the key query parameter in logged URIs.
func redactKey(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	query := parsed.Query()
	if !query.Has(apiKeyQuery) {
		return uri
	}
	query.Set(apiKeyQuery, "REDACTED")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
