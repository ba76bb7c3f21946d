package domain

// Server-to-client event types. Every event marshals to a JSON object with
// a "type" field so the browser can dispatch on it.
const (
	EventConnected   = "connected"
	EventStarted     = "started"
	EventStopped     = "stopped"
	EventPriceUpdate = "price_update"
	EventError       = "error"
)

// Client-to-server command types.
const (
	CommandStart = "start_announcements"
	CommandStop  = "stop_announcements"
)

// Event is a server-to-client message. Concrete events carry their own type
// tag so they marshal directly onto the wire.
type Event interface {
	EventType() string
}

type ConnectedEvent struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (e ConnectedEvent) EventType() string { return e.Type }

func NewConnectedEvent() ConnectedEvent {
	return ConnectedEvent{Type: EventConnected, Status: "Connected to server"}
}

type StartedEvent struct {
	Type            string `json:"type"`
	Symbol          string `json:"symbol"`
	IntervalSeconds int    `json:"intervalSeconds"`
}

func (e StartedEvent) EventType() string { return e.Type }

func NewStartedEvent(symbol string, intervalSeconds int) StartedEvent {
	return StartedEvent{Type: EventStarted, Symbol: symbol, IntervalSeconds: intervalSeconds}
}

type StoppedEvent struct {
	Type string `json:"type"`
}

func (e StoppedEvent) EventType() string { return e.Type }

func NewStoppedEvent() StoppedEvent {
	return StoppedEvent{Type: EventStopped}
}

type PriceUpdateEvent struct {
	Type         string  `json:"type"`
	Symbol       string  `json:"symbol"`
	Price        float64 `json:"price"`
	Announcement string  `json:"announcement"`
	Timestamp    int64   `json:"timestamp"`
}

func (e PriceUpdateEvent) EventType() string { return e.Type }

func NewPriceUpdateEvent(symbol string, price float64, announcement string, timestamp int64) PriceUpdateEvent {
	return PriceUpdateEvent{
		Type:         EventPriceUpdate,
		Symbol:       symbol,
		Price:        price,
		Announcement: announcement,
		Timestamp:    timestamp,
	}
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e ErrorEvent) EventType() string { return e.Type }

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

// Command is a client-to-server request read off the websocket.
type Command struct {
	Type            string `json:"type"`
	Symbol          string `json:"symbol,omitempty"`
	IntervalSeconds int    `json:"intervalSeconds,omitempty"`
}
