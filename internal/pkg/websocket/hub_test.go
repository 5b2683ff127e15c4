package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func recvEvent(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case data := <-ch:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_DeliversOnlyToTargetUser(t *testing.T) {
	hub := startHub(t)
	alice := &Client{hub: hub, userID: 1, send: make(chan []byte, 4)}
	bob := &Client{hub: hub, userID: 2, send: make(chan []byte, 4)}
	hub.register <- alice
	hub.register <- bob

	hub.PushNotification(1, map[string]string{"title": "Graded"}, 3)

	ev := recvEvent(t, alice.send)
	assert.Equal(t, EventNotification, ev.Type)
	assert.Equal(t, int64(3), ev.UnreadCount)

	hub.PushUnreadCount(2, 0)
	ev = recvEvent(t, bob.send)
	assert.Equal(t, EventUnreadCount, ev.Type)
	assert.Empty(t, alice.send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	c := &Client{hub: hub, userID: 5, send: make(chan []byte, 1)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.GetClientsCount(5) == 1 }, time.Second, 10*time.Millisecond)

	hub.unregister <- c
	_, ok := <-c.send
	assert.False(t, ok)
	require.Eventually(t, func() bool { return hub.GetClientsCount(5) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, userID: 9, send: make(chan []byte)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.GetClientsCount(9) == 1 }, time.Second, 10*time.Millisecond)

	hub.PushUnreadCount(9, 1)
	require.Eventually(t, func() bool { return hub.GetClientsCount(9) == 0 }, time.Second, 10*time.Millisecond)
}

type fakeReader struct {
	mu     sync.Mutex
	unread int64
	marked []int64
}

func (f *fakeReader) MarkAsRead(_ context.Context, _ int64, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	f.unread--
	return nil
}

func (f *fakeReader) MarkAllAsRead(context.Context, int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.unread
	f.unread = 0
	return n, nil
}

func (f *fakeReader) UnreadCount(context.Context, int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, nil
}

func TestHandler_ConnectionReceivesCountAndCommands(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := startHub(t)
	reader := &fakeReader{unread: 2}
	handler := NewHandler(hub, NewMessageHandler(reader, hub, zerolog.Nop()), nil, zerolog.Nop())

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { c.Set("userID", int64(42)) }, handler.HandleConnection)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventUnreadCount, ev.Type)
	assert.Equal(t, int64(2), ev.UnreadCount)

	hub.PushNotification(42, map[string]string{"title": "New grade"}, 3)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventNotification, ev.Type)

	require.NoError(t, conn.WriteJSON(Command{Type: "mark_read", NotificationID: 7}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventUnreadCount, ev.Type)
	assert.Equal(t, int64(1), ev.UnreadCount)
}
