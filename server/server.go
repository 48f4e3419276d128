// Package server is the authoritative HTTP store for habit data.
// Clients authenticate with a session token and replay their outbox
// against the entity endpoints; every write is an idempotent upsert
// keyed by the entity's natural key, so retried actions cannot create
// duplicates.
package server

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"

	"github.com/daystreak/habitsync/internal/logger"
)

// Server is the habit sync server.
type Server struct {
	db   *sqlx.DB
	echo *echo.Echo
}

// New connects to Postgres, runs migrations and wires the routes.
func New(dbURL string) (*Server, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	s := &Server{db: db}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	// Custom logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			logger.Info("http request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/magic-link", s.handleMagicLink)
	api.GET("/magic-link/:token", s.handleMagicLinkVerify)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/tasks", s.handleListTasks)
	protected.PUT("/tasks", s.handleUpsertTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)

	protected.GET("/entries", s.handleListEntries)
	protected.PUT("/entries", s.handleUpsertEntry)

	protected.GET("/notes", s.handleListDayNotes)
	protected.PUT("/notes", s.handleUpsertDayNote)

	protected.GET("/settings", s.handleGetSettings)
	protected.PUT("/settings", s.handleUpdateSettings)

	s.echo = e
}

// Close closes the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
