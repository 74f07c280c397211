package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/djdjm-value-shore/smoothoperatormini/session"
)

const sessionCookie = "session_id"

// sessionHeader is the cookie fallback for cross-domain clients whose
// browsers block third-party cookies.
const sessionHeader = "X-Session-ID"

type loginRequest struct {
	Passcode string `json:"passcode"`
}

type setKeyRequest struct {
	APIKey string `json:"api_key"`
}

type authResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// sessionID extracts the caller's session identifier from the cookie or the
// fallback header.
func sessionID(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.Request().Header.Get(sessionHeader)
}

// currentSession resolves the caller's session, touching it in the store.
func (s *Server) currentSession(c echo.Context) (*session.Session, error) {
	id := sessionID(c)
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no session cookie found")
	}
	sess, ok := s.store.GetSession(id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
	}
	return sess, nil
}

// requireSession guards routes that need a live session.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := s.currentSession(c)
		if err != nil {
			return err
		}
		c.Set("session", sess)
		return next(c)
	}
}

// requireAuthenticated guards routes that need passcode and API key both.
func (s *Server) requireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := s.currentSession(c)
		if err != nil {
			return err
		}
		if !sess.Authenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, "session not fully authenticated, please provide API key")
		}
		c.Set("session", sess)
		return next(c)
	}
}

func requestSession(c echo.Context) *session.Session {
	return c.Get("session").(*session.Session)
}

// passcodeMatches compares in constant time. The configured value may be a
// bcrypt hash instead of the plaintext passcode.
func passcodeMatches(configured, supplied string) bool {
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Passcode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "passcode is required")
	}
	if !passcodeMatches(s.cfg.Passcode, req.Passcode) {
		s.logger.Warn("auth.login.failed")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid passcode")
	}

	sess := s.store.CreateSession()
	s.store.SetPasscodeVerified(sess.ID)

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(s.cfg.SessionTTL / time.Second),
		Path:     "/",
	})

	s.logger.Info("auth.login.success", "session_id", sess.ID)
	return c.JSON(http.StatusOK, authResponse{
		Success:   true,
		Message:   "Login successful",
		SessionID: sess.ID,
	})
}

func (s *Server) handleSetKey(c echo.Context) error {
	sess := requestSession(c)
	if !sess.PasscodeVerified {
		return echo.NewHTTPError(http.StatusUnauthorized, "please login with passcode first")
	}

	var req setKeyRequest
	if err := c.Bind(&req); err != nil || req.APIKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "api_key is required")
	}

	// Key lives in memory only, never persisted.
	s.store.SetAPIKey(sess.ID, req.APIKey)
	s.logger.Info("auth.key.set", "session_id", sess.ID)
	return c.JSON(http.StatusOK, authResponse{
		Success:   true,
		Message:   "API key set successfully",
		SessionID: sess.ID,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if id := sessionID(c); id != "" {
		s.store.DeleteSession(id)
		s.logger.Info("auth.logout", "session_id", id)
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (s *Server) handleSessionStatus(c echo.Context) error {
	sess := requestSession(c)
	return c.JSON(http.StatusOK, map[string]any{
		"passcode_verified":   sess.PasscodeVerified,
		"api_key_set":         sess.UserAPIKey != "",
		"fully_authenticated": sess.Authenticated(),
		"session_id":          sess.ID,
	})
}
