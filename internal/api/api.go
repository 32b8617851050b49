// Package api provides the HTTP API server for Outpost, the MCP gateway
// audit platform: versioned REST routes over the tool-call log plus the
// embedded logs UI.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	v1 "outpost/internal/api/v1"
	"outpost/internal/auth"
	internalconfig "outpost/internal/config"
	"outpost/internal/db"
	"outpost/internal/db/repositories"
	"outpost/internal/logging"
	"outpost/internal/ui"
)

type Server struct {
	cfg        *internalconfig.Config
	db         db.Database
	httpServer *http.Server
	repos      *repositories.Repositories
	gateway    v1.ToolCaller
	localMode  bool
}

func New(cfg *internalconfig.Config, database db.Database, repos *repositories.Repositories, gateway v1.ToolCaller, localMode bool) *Server {
	return &Server{
		cfg:       cfg,
		db:        database,
		repos:     repos,
		gateway:   gateway,
		localMode: localMode,
	}
}

// Router builds the gin engine with all routes attached. Split out of Start
// so tests can drive the full middleware chain through httptest.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())

	// CORS for API endpoints only
	router.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}
		}

		c.Next()
	})

	router.GET("/health", s.healthCheck)

	authMW := auth.NewAuthMiddlewareWithLocalMode(s.repos, s.localMode)
	apiHandlers := v1.NewAPIHandlers(s.repos, s.gateway)
	apiHandlers.RegisterRoutes(router.Group("/api/v1"), authMW)

	s.setupLogsRoutes(router)

	return router
}

func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.APIPort),
		Handler: s.Router(),
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("API server error: %v", err)
		}
	}()

	<-ctx.Done()

	logging.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.Conn().Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "outpost-api",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "outpost-api",
	})
}

// setupLogsRoutes serves the embedded logs UI. A bare /logs redirects to the
// default tab; each tab renders the same page with the matching tab active.
func (s *Server) setupLogsRoutes(router *gin.Engine) {
	router.GET("/logs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/logs/llm-proxy")
	})

	router.GET("/logs/:tab", func(c *gin.Context) {
		tab := c.Param("tab")
		if tab != ui.TabLLMProxy && tab != ui.TabMCPGateway {
			c.Redirect(http.StatusFound, "/logs/llm-proxy")
			return
		}

		page, err := ui.LogsPage()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logs page unavailable"})
			return
		}

		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}
