// Package http provides the HTTP adapter in front of the dashboard services.
// It translates requests into repository, auth and report engine calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldline/workdesk/internal/auth"
	"github.com/fieldline/workdesk/internal/report"
	"github.com/fieldline/workdesk/internal/repository"
	"github.com/fieldline/workdesk/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	UploadDir    string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		UploadDir:    "data/uploads",
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	auth       *auth.Service
	workItems  *repository.WorkItemRepository
	generator  *report.Generator
	dispatcher *report.Dispatcher
	intake     *storage.Intake
	store      storage.ObjectStore
	logger     *zap.Logger
}

// NewServer creates the HTTP server with all routes wired
func NewServer(
	config ServerConfig,
	authService *auth.Service,
	workItems *repository.WorkItemRepository,
	generator *report.Generator,
	dispatcher *report.Dispatcher,
	intake *storage.Intake,
	store storage.ObjectStore,
	logger *zap.Logger,
) *Server {
	router := gin.New()

	server := &Server{
		config:     config,
		router:     router,
		auth:       authService,
		workItems:  workItems,
		generator:  generator,
		dispatcher: dispatcher,
		intake:     intake,
		store:      store,
		logger:     logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.auth, s.workItems, s.generator, s.dispatcher, s.intake, s.store, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	// Stored documents. URLs are unlisted but not authenticated, so they
	// can be dropped into emails and opened without a dashboard session.
	s.router.Static("/uploads", s.config.UploadDir)

	api := s.router.Group("/api")
	{
		api.POST("/auth/login", handlers.Login)
		api.POST("/auth/logout", handlers.Logout)

		admin := api.Group("", s.auth.RequireAdmin())
		{
			admin.GET("/workitems", handlers.ListWorkItems)
			admin.POST("/workitems", handlers.CreateWorkItem)
			admin.GET("/workitems/summary", handlers.SummarizeWorkItems)
			admin.GET("/workitems/:id", handlers.GetWorkItem)
			admin.PUT("/workitems/:id", handlers.UpdateWorkItem)
			admin.DELETE("/workitems/:id", handlers.DeleteWorkItem)
			admin.POST("/workitems/:id/documents", handlers.UploadDocument)
			admin.POST("/reports", handlers.GenerateReport)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is canceled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
