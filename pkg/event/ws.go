package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/parley-chat/parley/pkg/utils"
)

// WSMessage is the JSON frame pushed to subscribers.
type WSMessage struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
	TS    int64          `json:"ts"` // unix ms
}

// WSOptions tunes the keepalive of event subscribers. Zero fields take
// the defaults below.
type WSOptions struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Buffer       int
}

const (
	DefaultWSPingInterval = 30 * time.Second
	DefaultWSReadTimeout  = 60 * time.Second
	defaultWSWriteTimeout = 5 * time.Second
	defaultWSBuffer       = 64
)

func (o WSOptions) withDefaults() WSOptions {
	if o.PingInterval <= 0 {
		o.PingInterval = DefaultWSPingInterval
	}
	if o.ReadTimeout <= o.PingInterval {
		o.ReadTimeout = 2 * o.PingInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWSWriteTimeout
	}
	if o.Buffer <= 0 {
		o.Buffer = defaultWSBuffer
	}
	return o
}

// WSHandler streams emitter events to WebSocket clients.
type WSHandler struct {
	emitter  *Emitter
	opts     WSOptions
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a handler subscribing clients to emitter.
// Origin checks are left to the CORS middleware in front of it.
func NewWSHandler(emitter *Emitter, opts WSOptions) *WSHandler {
	return &WSHandler{
		emitter: emitter,
		opts:    opts.withDefaults(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: utils.GetLogger(),
	}
}

// Handle upgrades the request and streams events until the client goes
// away. ?events=a,b restricts the stream to the named events.
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := &wsSubscriber{
		conn:   conn,
		opts:   h.opts,
		filter: parseEventFilter(c.Query("events")),
		send:   make(chan WSMessage, h.opts.Buffer),
		logger: h.logger,
	}
	unsubscribe := h.emitter.OnAny(sub.enqueue)
	defer unsubscribe()

	closed := make(chan struct{})
	go sub.readLoop(closed)
	sub.writeLoop(c.Request.Context(), closed)
}

// parseEventFilter returns nil (all events) for an empty list.
func parseEventFilter(param string) map[string]bool {
	var filter map[string]bool
	for _, name := range strings.Split(param, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		if filter == nil {
			filter = make(map[string]bool)
		}
		filter[name] = true
	}
	return filter
}

type wsSubscriber struct {
	conn   *websocket.Conn
	opts   WSOptions
	filter map[string]bool
	send   chan WSMessage
	logger *slog.Logger
}

// enqueue runs on the emitter's goroutine and must not block: a slow
// client loses events rather than stalling writers.
func (s *wsSubscriber) enqueue(ev Event) {
	if s.filter != nil && !s.filter[ev.EventName()] {
		return
	}
	msg := WSMessage{Event: ev.EventName(), Data: eventToData(ev), TS: time.Now().UnixMilli()}
	select {
	case s.send <- msg:
	default:
		s.logger.Warn("dropped websocket event, client buffer full", "event", ev.EventName())
	}
}

// readLoop discards client frames and extends the read deadline on
// every pong. It closes closed when the connection fails.
func (s *wsSubscriber) readLoop(closed chan<- struct{}) {
	defer close(closed)
	s.conn.SetReadLimit(4096)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on the connection.
func (s *wsSubscriber) writeLoop(ctx context.Context, closed <-chan struct{}) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			err = s.conn.WriteMessage(websocket.PingMessage, nil)
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			err = s.conn.WriteJSON(msg)
		}
		if err != nil {
			return
		}
	}
}

// eventToData flattens an event into its JSON object form.
func eventToData(ev Event) map[string]any {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
