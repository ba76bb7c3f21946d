package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichD/stock-audible/internal/domain"
)

// replayStub lets tests control what a fresh client receives after its
// connected ack.
type replayStub struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *replayStub) set(events ...domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = events
}

func (r *replayStub) replay() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

// testHub sets up a Hub behind a test HTTP server and returns a dial helper.
func testHub(t *testing.T, maxClients int, replay *replayStub) (*Hub, func() *ws.Conn) {
	t.Helper()

	hub := NewHub(clockwork.NewRealClock(), maxClients, replay.replay)
	t.Cleanup(hub.Stop)

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		sessionID := uuid.New()
		if err := hub.Register(sessionID, conn); err != nil {
			return
		}

		go func() {
			defer hub.Unregister(sessionID)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}))
	t.Cleanup(server.Close)

	dial := func() *ws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return hub, dial
}

func readEvent(t *testing.T, conn *ws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForClientCount(h *Hub, expected int) bool {
	for i := 0; i < 200; i++ {
		if h.ClientCount() == expected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestHub_RegisterSendsConnectedAck(t *testing.T) {
	_, dial := testHub(t, 10, &replayStub{})

	conn := dial()
	msg := readEvent(t, conn)

	assert.Equal(t, domain.EventConnected, msg["type"])
	assert.Equal(t, "Connected to server", msg["status"])
}

func TestHub_PublishReachesAllClients(t *testing.T) {
	hub, dial := testHub(t, 10, &replayStub{})

	connA := dial()
	connB := dial()
	require.True(t, waitForClientCount(hub, 2))

	// Drain connected acks.
	readEvent(t, connA)
	readEvent(t, connB)

	hub.Publish(domain.NewPriceUpdateEvent("AAPL", 189.32, "AAPL is at 189.32 dollars", 1700000000))

	for _, conn := range []*ws.Conn{connA, connB} {
		msg := readEvent(t, conn)
		assert.Equal(t, domain.EventPriceUpdate, msg["type"])
		assert.Equal(t, "AAPL", msg["symbol"])
		assert.Equal(t, 189.32, msg["price"])
		assert.Equal(t, "AAPL is at 189.32 dollars", msg["announcement"])
	}
}

func TestHub_LateJoinerReceivesReplay(t *testing.T) {
	replay := &replayStub{}
	replay.set(domain.NewPriceUpdateEvent("TSLA", 250.10, "TSLA is at 250.10 dollars", 1700000000))
	_, dial := testHub(t, 10, replay)

	conn := dial()

	ack := readEvent(t, conn)
	assert.Equal(t, domain.EventConnected, ack["type"])

	// The snapshot arrives right behind the ack, not after the next tick.
	msg := readEvent(t, conn)
	assert.Equal(t, domain.EventPriceUpdate, msg["type"])
	assert.Equal(t, "TSLA", msg["symbol"])
}

func TestHub_MaxClientsRejected(t *testing.T) {
	hub, dial := testHub(t, 1, &replayStub{})

	connA := dial()
	readEvent(t, connA)
	require.True(t, waitForClientCount(hub, 1))

	// The second client is closed by the hub; its read fails quickly.
	connB := dial()
	require.NoError(t, connB.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := connB.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub, dial := testHub(t, 10, &replayStub{})

	conn := dial()
	readEvent(t, conn)
	require.True(t, waitForClientCount(hub, 1))

	conn.Close()
	require.True(t, waitForClientCount(hub, 0))

	// Unregistering an unknown session must not panic or error.
	hub.Unregister(uuid.New())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_DisconnectDoesNotAffectOthers(t *testing.T) {
	hub, dial := testHub(t, 10, &replayStub{})

	connA := dial()
	connB := dial()
	require.True(t, waitForClientCount(hub, 2))
	readEvent(t, connA)
	readEvent(t, connB)

	connA.Close()
	require.True(t, waitForClientCount(hub, 1))

	hub.Publish(domain.NewStoppedEvent())
	msg := readEvent(t, connB)
	assert.Equal(t, domain.EventStopped, msg["type"])
}

func TestHub_StopClosesClients(t *testing.T) {
	replay := &replayStub{}
	hub := NewHub(clockwork.NewRealClock(), 10, replay.replay)

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		require.NoError(t, hub.Register(uuid.New(), conn))
	}))
	defer server.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	hub.Stop()

	// The client sees a close frame or a dropped connection.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
