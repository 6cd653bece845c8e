// Package http is the management-plane HTTP surface of the lifecycle manager.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/lifecycle"
	"github.com/agentpod/agentpod/internal/interfaces/http/handlers"
)

// Config holds HTTP server settings.
type Config struct {
	Host        string
	Port        int
	Mode        string // local, production
	CORSOrigins []string
}

// Server is the manager HTTP server.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer wires routes and middleware around the lifecycle manager.
func NewServer(cfg Config, manager *lifecycle.Manager, logger *zap.Logger) *Server {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	agentHandler := handlers.NewAgentHandler(manager, logger)
	templateHandler := handlers.NewTemplateHandler(manager, logger)
	debugHandler := handlers.NewDebugHandler(manager, logger)

	setupRoutes(router, agentHandler, templateHandler, debugHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger,
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.server.Handler }

// Start begins serving. Blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting manager HTTP server", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping manager HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(router *gin.Engine, agents *handlers.AgentHandler, templates *handlers.TemplateHandler, debug *handlers.DebugHandler) {
	router.GET("/health", debug.Health)

	router.GET("/templates", templates.List)
	router.GET("/templates/:name", templates.Get)

	router.GET("/debug/config", debug.Config)
	router.GET("/debug/azure-test", debug.AzureTest)
	router.POST("/debug/echo", debug.Echo)

	router.POST("/agents", agents.Create)
	router.GET("/agents", agents.List)
	router.GET("/agents/:id", agents.Get)
	router.DELETE("/agents/:id", agents.Delete)
	router.POST("/agents/:id/chat", agents.Chat)
	router.GET("/agents/:id/health", agents.Health)
}

// ginLogger logs each request through zap.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
