package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/model"
)

type registerRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

type loginRequest struct {
	PIN string `json:"pin"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

func validPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handleRegister creates a user identified by email and a numeric PIN.
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Email == "" || req.PIN == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and pin required"})
	}
	if !validPIN(req.PIN) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "pin must be 4 to 8 digits"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("bcrypt error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	var userID string
	err = s.db.QueryRowContext(c.Request().Context(), `
		INSERT INTO users (email, pin_hash)
		VALUES ($1, $2)
		RETURNING id`,
		req.Email, string(hash),
	).Scan(&userID)

	if err != nil {
		if strings.Contains(err.Error(), "unique") {
			return c.JSON(http.StatusConflict, map[string]string{"error": "email already exists"})
		}
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	token, expiresAt, err := s.createSession(userID)
	if err != nil {
		logger.Error("session error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("user registered", logger.F("email", req.Email))

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    userID,
	})
}

// handleLogin authenticates by PIN alone. The PIN identifies the
// user, so every stored hash is checked until one matches.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.PIN == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "pin required"})
	}

	rows, err := s.db.QueryContext(c.Request().Context(),
		`SELECT id, email, pin_hash FROM users`)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	var userID, email string
	for rows.Next() {
		var id, em, hash string
		if err := rows.Scan(&id, &em, &hash); err != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)) == nil {
			userID, email = id, em
			break
		}
	}

	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	token, expiresAt, err := s.createSession(userID)
	if err != nil {
		logger.Error("session error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("user logged in", logger.F("email", email))

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    userID,
	})
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(c echo.Context) error {
	user := model.User{ID: currentUserID(c)}

	err := s.db.QueryRowContext(c.Request().Context(),
		`SELECT email, created_at FROM users WHERE id = $1`, user.ID,
	).Scan(&user.Email, &user.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// handleLogout invalidates the presented session token.
func (s *Server) handleLogout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")

	if _, err := s.db.ExecContext(c.Request().Context(),
		`DELETE FROM sessions WHERE token = $1`, token); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// createSession creates a new 30-day session for a user.
func (s *Server) createSession(userID string) (string, time.Time, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, err
	}
	token := hex.EncodeToString(tokenBytes)

	expiresAt := time.Now().Add(30 * 24 * time.Hour)

	_, err := s.db.Exec(`
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	)

	return token, expiresAt, err
}
