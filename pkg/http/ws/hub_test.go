package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDeduplicatesClients(t *testing.T) {
	h := NewHub(zerolog.Nop())
	session := uuid.New()
	client := uuid.New()

	h.Watch(session, client)
	h.Watch(session, client)
	assert.Equal(t, 1, h.Watchers(session))

	h.Watch(session, uuid.New())
	assert.Equal(t, 2, h.Watchers(session))
}

func TestUnregisterDetachesWatcher(t *testing.T) {
	h := NewHub(zerolog.Nop())
	session := uuid.New()
	client := uuid.New()

	h.Watch(session, client)
	h.Unregister(client)
	assert.Zero(t, h.Watchers(session))
}

func TestSendToUnknownClient(t *testing.T) {
	h := NewHub(zerolog.Nop())
	err := h.SendToClient(uuid.New(), Message{Type: TypePong})
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

// A connection must survive idle periods longer than its read deadline: the
// write pump pings, the peer pongs, and the deadline keeps moving.
func TestPingKeepsIdleConnectionAlive(t *testing.T) {
	received := make(chan Message, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConnection(conn, zerolog.Nop())
		c.pongWait = 200 * time.Millisecond
		c.pingPeriod = 50 * time.Millisecond
		go c.WritePump()
		c.ReadPump(func(msg Message) error {
			received <- msg
			return nil
		})
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	// gorilla's default ping handler answers with pongs as long as a read
	// loop runs, standing in for a browser renderer.
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Stay idle for several multiples of the read deadline, then speak.
	time.Sleep(600 * time.Millisecond)
	require.NoError(t, client.WriteJSON(Message{Type: TypePing}))

	select {
	case msg := <-received:
		assert.Equal(t, TypePing, msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("server dropped the idle connection")
	}
}
