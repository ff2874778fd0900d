// Package httpapi exposes the assistant and the document CRUD surface
// over HTTP. It is plumbing around the core: every endpoint is a thin
// caller of the driving ports.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/core/ports/driving"
	"github.com/brightlyhq/brightly/internal/logger"
)

// DefaultPassword gates the dashboard until an operator changes it.
const DefaultPassword = "brightSchool2026"

// Server is the HTTP surface over the assistant core.
type Server struct {
	router    *gin.Engine
	server    *http.Server
	assistant driving.Assistant
	index     driving.Index
	remote    driven.RemoteStore
	config    driven.ConfigStore
	addr      string
}

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string

	// StaticDirs are directories served at /<dir> when present.
	StaticDirs []string
}

// NewServer builds the router and registers all routes.
func NewServer(
	cfg Config,
	assistant driving.Assistant,
	index driving.Index,
	remote driven.RemoteStore,
	config driven.ConfigStore,
) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		assistant: assistant,
		index:     index,
		remote:    remote,
		config:    config,
		addr:      cfg.Addr,
	}

	router.GET("/health", s.health)
	router.GET("/", s.root)

	router.GET("/files", s.listFiles)
	router.GET("/file/*path", s.readFile)
	router.POST("/file/create", s.createFile)
	router.POST("/file/update", s.updateFile)
	router.DELETE("/file/*path", s.deleteFile)

	router.POST("/ask", s.ask)
	router.POST("/admin/refresh", s.adminRefresh)

	router.POST("/auth-check", s.authCheck)
	router.POST("/change-password", s.changePassword)

	for _, dir := range cfg.StaticDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			router.Static("/"+dir, dir)
		}
	}

	return s
}

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}
	logger.Info("HTTP server listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) root(c *gin.Context) {
	if _, err := os.Stat("index.html"); err == nil {
		c.File("index.html")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ABC Senior Secondary School API"})
}

// requestLogger logs each request when verbose mode is on.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware allows the configured origins; "*" allows any.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := false
	allowedSet := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			wildcard = true
		}
		allowedSet[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (wildcard || allowedSet[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
