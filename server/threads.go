package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type threadResponse struct {
	ThreadID  string `json:"thread_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleCreateThread(c echo.Context) error {
	sess := requestSession(c)
	th := s.store.CreateThread(sess.ID)

	s.logger.Info("thread.created", "thread_id", th.ID, "session_id", sess.ID)
	return c.JSON(http.StatusOK, threadResponse{
		ThreadID:  th.ID,
		SessionID: sess.ID,
		Message:   "Thread created successfully",
	})
}

func (s *Server) handleGetThread(c echo.Context) error {
	sess := requestSession(c)

	th, ok := s.store.GetThread(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "thread not found or expired")
	}
	if th.SessionID != sess.ID {
		return echo.NewHTTPError(http.StatusForbidden, "thread does not belong to this session")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"thread_id":     th.ID,
		"session_id":    th.SessionID,
		"message_count": len(th.Messages),
		"messages":      th.Messages,
		"created_at":    th.CreatedAt,
		"last_accessed": th.LastAccessed,
	})
}
