package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/RichD/stock-audible/internal/domain"
	"github.com/RichD/stock-audible/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	sessionID    uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	sessionID uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	event domain.Event
}

type publishToCmd struct {
	baseHubCmd
	sessionID uuid.UUID
	event     domain.Event
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub tracks connected sessions and fans ticker events out to all of them.
// One goroutine owns the registry; all access goes through the command
// channel.
type Hub struct {
	cmdCh      chan hubCmd
	clock      clockwork.Clock
	clients    map[uuid.UUID]*clientWriter
	maxClients int
	replay     func() []domain.Event
	done       chan struct{}
}

// NewHub creates and starts a hub. replay, if non-nil, supplies the events a
// freshly connected session should receive after its `connected` ack (the
// current snapshot, so late joiners are not left blank until the next tick).
func NewHub(clock clockwork.Clock, maxClients int, replay func() []domain.Event) *Hub {
	h := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clock:      clock,
		clients:    make(map[uuid.UUID]*clientWriter),
		maxClients: maxClients,
		replay:     replay,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a session. The new client immediately receives a `connected`
// acknowledgment and any replay events. Returns an error only when the
// client cap is reached.
func (h *Hub) Register(sessionID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{sessionID: sessionID, connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a session. Removing an unknown session is a no-op:
// disconnects can race other cleanup.
func (h *Hub) Unregister(sessionID uuid.UUID) {
	h.cmdCh <- unregisterCmd{sessionID: sessionID}
}

// Publish sends the event to every connected session. Implements
// domain.Publisher.
func (h *Hub) Publish(event domain.Event) {
	h.cmdCh <- publishCmd{event: event}
}

// PublishTo sends the event to a single session, used for command
// rejections that only concern their issuer.
func (h *Hub) PublishTo(sessionID uuid.UUID, event domain.Event) {
	h.cmdCh <- publishToCmd{sessionID: sessionID, event: event}
}

// ClientCount returns the number of connected sessions, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing all client connections. Blocks until the
// hub goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.sessionID)
		case publishCmd:
			h.handlePublish(c.event)
		case publishToCmd:
			h.handlePublishTo(c.sessionID, c.event)
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting client: max clients reached", "session_id", c.sessionID.String(), "max_clients", h.maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients (%d) reached", h.maxClients)
		return
	}

	cw := newClientWriter(c.connection, h.clock)
	h.clients[c.sessionID] = cw
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Client registered", "session_id", c.sessionID.String(), "total_clients", len(h.clients))
	c.errorChannel <- nil

	h.send(c.sessionID, cw, domain.NewConnectedEvent())
	if h.replay != nil {
		for _, event := range h.replay() {
			h.send(c.sessionID, cw, event)
		}
	}
}

func (h *Hub) handleUnregister(sessionID uuid.UUID) {
	cw, exists := h.clients[sessionID]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, sessionID)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Client unregistered", "session_id", sessionID.String(), "remaining_clients", len(h.clients))
}

func (h *Hub) handlePublish(event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "type", event.EventType(), "error", err)
		return
	}
	metrics.HubEventsPublishedTotal.WithLabelValues(event.EventType()).Inc()

	var slow []uuid.UUID
	for sessionID, cw := range h.clients {
		select {
		case cw.sendChannel <- data:
		default:
			slow = append(slow, sessionID)
		}
	}

	// A stalled session must not hold the broadcast back for the rest.
	for _, sessionID := range slow {
		slog.Warn("Disconnecting slow client", "session_id", sessionID.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(sessionID)
	}
}

func (h *Hub) handlePublishTo(sessionID uuid.UUID, event domain.Event) {
	cw, exists := h.clients[sessionID]
	if !exists {
		return
	}
	h.send(sessionID, cw, event)
}

// send delivers one event to one client, evicting it when its buffer is
// full.
func (h *Hub) send(sessionID uuid.UUID, cw *clientWriter, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "type", event.EventType(), "error", err)
		return
	}
	select {
	case cw.sendChannel <- data:
	default:
		slog.Warn("Disconnecting slow client", "session_id", sessionID.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(sessionID)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients))
	for sessionID, cw := range h.clients {
		cw.stopGraceful("Server shutting down")
		delete(h.clients, sessionID)
	}
	metrics.HubConnectedClients.Set(0)
}
