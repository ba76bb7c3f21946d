package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/RichD/stock-audible/internal/domain"
	"github.com/RichD/stock-audible/internal/metrics"
)

// commandRate bounds how fast a single session may issue start/stop
// commands; bursts cover double-clicks, sustained spam gets error events.
const (
	commandRate  = rate.Limit(1)
	commandBurst = 5

	maxCommandBytes = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the page carries no credentials, any origin may listen
	},
}

func (s *Server) handleIndex(c echo.Context) error {
	data := map[string]any{
		"DefaultInterval": s.config.DefaultIntervalSeconds,
	}

	// Render to a buffer first so a template error never sends partial HTML.
	var buf bytes.Buffer
	if err := s.indexTemplate.Execute(&buf, data); err != nil {
		slog.Error("Template execution failed", "error", err)
		return c.String(http.StatusInternalServerError, "Failed to render page")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade websocket: %w", err)
	}

	sessionID := uuid.New()
	if err := s.hub.Register(sessionID, conn); err != nil {
		slog.Warn("Failed to register with hub", "session_id", sessionID.String(), "error", err)
		return nil
	}

	conn.SetReadLimit(maxCommandBytes)
	s.readPump(sessionID, conn)

	s.hub.Unregister(sessionID)
	return nil
}

// readPump decodes client commands until the connection closes. The issuing
// session has no special privilege: a start or stop changes the one shared
// ticker for everyone.
func (s *Server) readPump(sessionID uuid.UUID, conn *websocket.Conn) {
	limiter := rate.NewLimiter(commandRate, commandBurst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd domain.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.hub.PublishTo(sessionID, domain.NewErrorEvent("Malformed command"))
			metrics.CommandsTotal.WithLabelValues("unknown", "rejected").Inc()
			continue
		}

		if !limiter.Allow() {
			s.hub.PublishTo(sessionID, domain.NewErrorEvent("Too many commands, slow down"))
			metrics.CommandsTotal.WithLabelValues(cmd.Type, "rate_limited").Inc()
			continue
		}

		s.handleCommand(sessionID, cmd)
	}
}

func (s *Server) handleCommand(sessionID uuid.UUID, cmd domain.Command) {
	switch cmd.Type {
	case domain.CommandStart:
		if err := s.scheduler.Start(cmd.Symbol, cmd.IntervalSeconds); err != nil {
			slog.Info("Start command rejected", "session_id", sessionID.String(), "symbol", cmd.Symbol, "interval_seconds", cmd.IntervalSeconds, "error", err)
			s.hub.PublishTo(sessionID, domain.NewErrorEvent(err.Error()))
			metrics.CommandsTotal.WithLabelValues(cmd.Type, "rejected").Inc()
			return
		}
		metrics.CommandsTotal.WithLabelValues(cmd.Type, "accepted").Inc()

	case domain.CommandStop:
		s.scheduler.Stop()
		metrics.CommandsTotal.WithLabelValues(cmd.Type, "accepted").Inc()

	default:
		s.hub.PublishTo(sessionID, domain.NewErrorEvent(fmt.Sprintf("Unknown command: %s", cmd.Type)))
		metrics.CommandsTotal.WithLabelValues(cmd.Type, "rejected").Inc()
	}
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	snap := s.store.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"running": snap.Running,
		"symbol":  snap.Symbol,
		"clients": s.hub.ClientCount(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
