package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/daystreak/habitsync/internal/model"
)

// authMiddleware checks for a valid session token and stores the
// authenticated user id on the request context.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
		}

		var session model.Session
		err := s.db.QueryRowContext(c.Request().Context(),
			`SELECT user_id, expires_at FROM sessions WHERE token = $1`,
			token,
		).Scan(&session.UserID, &session.ExpiresAt)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		if session.IsExpired() {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token expired"})
		}

		c.Set("user_id", session.UserID)
		return next(c)
	}
}

func currentUserID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}
