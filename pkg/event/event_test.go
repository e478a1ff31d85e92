package event

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_OnAndUnsubscribe(t *testing.T) {
	e := NewEmitter()

	var specific, all int
	off := e.On(MessageCreated, func(Event) { specific++ })
	offAny := e.OnAny(func(Event) { all++ })

	e.Emit(MessageCreatedEvent{ConversationID: 1, MessageID: 2})
	e.Emit(ConversationCreatedEvent{ConversationID: 1})
	assert.Equal(t, 1, specific)
	assert.Equal(t, 2, all)

	off()
	offAny()
	e.Emit(MessageCreatedEvent{ConversationID: 1, MessageID: 3})
	assert.Equal(t, 1, specific)
	assert.Equal(t, 2, all)
}

func TestEmitter_UnsubscribeKeepsOthers(t *testing.T) {
	e := NewEmitter()

	var a, b int
	offA := e.OnAny(func(Event) { a++ })
	e.OnAny(func(Event) { b++ })
	offA()

	e.Emit(FolderChangedEvent{FolderID: 1})
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}

func TestEventToData(t *testing.T) {
	data := eventToData(ArtifactCreatedEvent{ConversationID: 4, ArtifactID: 9, Identifier: "abc", Version: 2})
	assert.Equal(t, "abc", data["identifier"])
	assert.EqualValues(t, 2, data["version"])
	assert.EqualValues(t, 9, data["artifact_id"])
}

func TestWSHandler_DeliversFilteredEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := NewEmitter()
	r := gin.New()
	r.GET("/ws", NewWSHandler(e, WSOptions{}).Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?events=" + MessageCreated
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// wait for the handler to subscribe
	require.Eventually(t, func() bool {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return len(e.allListeners) == 1
	}, 2*time.Second, 10*time.Millisecond)

	e.Emit(ConversationCreatedEvent{ConversationID: 1})
	e.Emit(MessageCreatedEvent{ConversationID: 1, MessageID: 7})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageCreated, msg.Event)
	assert.EqualValues(t, 7, msg.Data["message_id"])
}

func TestWSOptions_Defaults(t *testing.T) {
	o := WSOptions{}.withDefaults()
	assert.Equal(t, DefaultWSPingInterval, o.PingInterval)
	assert.Equal(t, 2*DefaultWSPingInterval, o.ReadTimeout)
	assert.Positive(t, o.WriteTimeout)
	assert.Positive(t, o.Buffer)

	// a read timeout shorter than the ping interval would drop healthy clients
	o = WSOptions{PingInterval: 10 * time.Second, ReadTimeout: 5 * time.Second}.withDefaults()
	assert.Equal(t, 20*time.Second, o.ReadTimeout)
}

func TestParseEventFilter(t *testing.T) {
	assert.Nil(t, parseEventFilter(""))
	assert.Nil(t, parseEventFilter(" , "))
	assert.Equal(t, map[string]bool{MessageCreated: true, ConversationUpdated: true},
		parseEventFilter(MessageCreated+", "+ConversationUpdated))
}

func TestWSHandler_PingsOnConfiguredInterval(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewWSHandler(NewEmitter(), WSOptions{PingInterval: 20 * time.Millisecond}).Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})
	// control frames are only processed while reading
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received")
	}
}
