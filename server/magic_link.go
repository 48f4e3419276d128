package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/model"
)

type magicLinkRequest struct {
	Email string `json:"email"`
}

// handleMagicLink creates a single-use login token for an email.
func (s *Server) handleMagicLink(c echo.Context) error {
	var req magicLinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email required"})
	}

	// Don't reveal whether the email exists
	var userID string
	err := s.db.QueryRowContext(c.Request().Context(),
		`SELECT id FROM users WHERE email = $1`, req.Email).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]string{"message": "if email exists, a magic link will be sent"})
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		logger.Error("token generation error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	token := hex.EncodeToString(tokenBytes)

	// Token expires in 15 minutes
	expiresAt := time.Now().Add(15 * time.Minute)

	_, err = s.db.ExecContext(c.Request().Context(), `
		INSERT INTO magic_links (email, token, expires_at)
		VALUES ($1, $2, $3)`,
		req.Email, token, expiresAt,
	)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("magic link created", logger.F("email", req.Email))

	// In production, send email here
	return c.JSON(http.StatusOK, map[string]string{
		"message": "if email exists, a magic link will be sent",
		"token":   token, // Remove in production
	})
}

// handleMagicLinkVerify redeems a magic link and creates a session.
// A link can be redeemed once; expired or reused tokens are rejected.
func (s *Server) handleMagicLinkVerify(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token required"})
	}

	var link model.MagicLink
	err := s.db.QueryRowContext(c.Request().Context(), `
		SELECT email, expires_at, used FROM magic_links
		WHERE token = $1`,
		token,
	).Scan(&link.Email, &link.ExpiresAt, &link.Used)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid token"})
	}

	if link.Used {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token already used"})
	}
	if link.IsExpired() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "token expired"})
	}

	if _, err := s.db.ExecContext(c.Request().Context(),
		`UPDATE magic_links SET used = TRUE WHERE token = $1`, token); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	var userID string
	err = s.db.QueryRowContext(c.Request().Context(),
		`SELECT id FROM users WHERE email = $1`, link.Email).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	sessionToken, sessionExpires, err := s.createSession(userID)
	if err != nil {
		logger.Error("session error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("magic link login", logger.F("email", link.Email))

	return c.JSON(http.StatusOK, authResponse{
		Token:     sessionToken,
		ExpiresAt: sessionExpires.Format(time.RFC3339),
		UserID:    userID,
	})
}
