// Package api provides an HTTP REST API for inspecting a running receiver
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/network"
	"github.com/ZentaChain/fcm-receiver/pkg/storage"
)

// StatusSource reports receiver counters
type StatusSource interface {
	Stats() network.Stats
}

// Inbox serves recently received notifications, newest first
type Inbox interface {
	Recent(limit int) ([]*storage.Notification, error)
}

// Server represents the HTTP API server
type Server struct {
	status       StatusSource
	inbox        Inbox
	router       *gin.Engine
	port         int
	historyLimit int
	httpServer   *http.Server
	logger       *zap.Logger
}

// Config holds server configuration
type Config struct {
	Port         int
	EnableCORS   bool
	RateLimit    int // Requests per minute
	HistoryLimit int // Maximum notifications returned per request
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		RateLimit:    100,
		HistoryLimit: 50,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates a new HTTP API server
func NewServer(status StatusSource, inbox Inbox, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.L().Named("api")
	}
	historyLimit := config.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultConfig().HistoryLimit
	}

	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		status:       status,
		inbox:        inbox,
		router:       gin.New(),
		port:         config.Port,
		historyLimit: historyLimit,
		logger:       logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
	server.httpServer.Handler = server.router

	server.setupMiddleware(config)
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(config *Config) {
	s.router.Use(RequestIDMiddleware())

	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}

	if config.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(NewRateLimiter(config.RateLimit)))
	}

	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(gin.Recovery())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/notifications", s.handleNotifications)
	}

	// Health check endpoint (outside versioning)
	s.router.GET("/health", s.handleHealth)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.Int("port", s.port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http api")
	return s.Stop()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
