package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/djdjm-value-shore/smoothoperatormini/agent"
	"github.com/djdjm-value-shore/smoothoperatormini/core"
	"github.com/djdjm-value-shore/smoothoperatormini/engine"
)

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// handleChat runs one turn and streams its events as SSE frames. When the
// request names a thread, the turn starts from the thread's history and the
// produced messages are written back afterwards.
func (s *Server) handleChat(c echo.Context) error {
	sess := requestSession(c)

	var req chatRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	state := &engine.State{SessionID: sess.ID}
	if req.ThreadID != "" {
		th, ok := s.store.GetThread(req.ThreadID)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found or expired")
		}
		if th.SessionID != sess.ID {
			return echo.NewHTTPError(http.StatusForbidden, "thread does not belong to this session")
		}
		state.Current = agent.Name(th.CurrentAgent)
		state.History = th.Messages
	}
	baseLen := len(state.History)

	s.logger.Info("chat.turn.start",
		"session_id", sess.ID,
		"thread_id", req.ThreadID,
	)

	eng := engine.New(
		s.newClient(sess.UserAPIKey),
		s.agents,
		s.tools,
		func(o *engine.Options) {
			o.MaxIterations = s.cfg.MaxIterations
			o.Logger = s.logger
		},
	)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	events := eng.RunTurn(c.Request().Context(), state, req.Message)
	for ev := range events {
		name, payload, ok := frame(ev)
		if !ok {
			continue
		}
		if err := writeSSE(res, name, payload); err != nil {
			// Client went away; drain the turn so the engine can finish.
			s.logger.Warn("chat.stream.write_failed", "error", err.Error())
			for range events {
			}
			break
		}
	}

	if req.ThreadID != "" {
		s.store.AppendMessages(req.ThreadID, state.History[baseLen:]...)
		s.store.SetCurrentAgent(req.ThreadID, string(state.Current))
	}
	return nil
}

// frame projects a turn event onto its SSE representation. The user echo is
// internal and not forwarded.
func frame(ev core.Event) (string, any, bool) {
	switch e := ev.(type) {
	case core.ContentDeltaEvent:
		return "delta", map[string]any{
			"agent":   e.Agent,
			"content": e.Delta,
		}, true
	case core.AgentActivatedEvent:
		return "agent_handoff", map[string]any{
			"agent":      e.Agent,
			"agent_name": e.AgentName,
			"message":    fmt.Sprintf("→ Handing off to %s", e.AgentName),
		}, true
	case core.ToolInvokedEvent:
		return "tool_call", map[string]any{
			"agent":     e.Agent,
			"tool":      e.Tool,
			"arguments": e.Arguments,
		}, true
	case core.ToolCompletedEvent:
		return "tool_result", map[string]any{
			"agent":  e.Agent,
			"tool":   e.Tool,
			"result": e.Result,
		}, true
	case core.ErrorEvent:
		return "error", map[string]any{
			"error": e.Message,
		}, true
	case core.TurnCompleteEvent:
		return "done", map[string]any{
			"agent":  e.Agent,
			"reason": string(e.Reason),
		}, true
	default:
		return "", nil, false
	}
}

func writeSSE(res *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
