// Package web exposes the configuration and status HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ragoalert/internal/config"
)

// StatusReporter exposes the monitor manager's runtime state.
type StatusReporter interface {
	Status() map[string]any
}

// Server hosts the config API.
type Server struct {
	cfg    *config.Config
	users  *config.UsersManager
	status StatusReporter
	logger zerolog.Logger
	http   *http.Server
}

// NewServer builds the HTTP server and its routes.
func NewServer(cfg *config.Config, users *config.UsersManager, status StatusReporter, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		users:  users,
		status: status,
		logger: logger.With().Str("component", "web").Logger(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/config", s.getConfig)
		api.GET("/pools", s.getPools)

		api.GET("/users", s.listUsers)
		api.GET("/users/:email", s.getUser)
		api.PUT("/users/:email", s.putUser)
		api.PATCH("/users/:email", s.patchUser)
		api.DELETE("/users/:email", s.deleteUser)
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("web API listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status.Status())
}

// getConfig returns the system configuration with the SMTP password
// redacted.
func (s *Server) getConfig(c *gin.Context) {
	redacted := *s.cfg
	if redacted.SMTP.Password != "" {
		redacted.SMTP.Password = "***"
	}
	c.JSON(http.StatusOK, redacted)
}

func (s *Server) getPools(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.StockPools)
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.users.All())
}

func (s *Server) getUser(c *gin.Context) {
	email := c.Param("email")
	profile, ok := s.users.Get(email)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) putUser(c *gin.Context) {
	email := c.Param("email")
	var profile config.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.users.Upsert(email, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) patchUser(c *gin.Context) {
	email := c.Param("email")
	var update config.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.users.Apply(email, update); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) deleteUser(c *gin.Context) {
	email := c.Param("email")
	if err := s.users.Delete(email); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
