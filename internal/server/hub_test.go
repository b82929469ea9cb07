package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub stands up a hub behind a bare upgrade handler and returns it
// with a connected client.
func dialHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := newHub(quietLogger())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := sceneUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(conn)
	}))
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the server a beat to register the client.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, hub.Count())
	return hub, conn
}

func TestHubConcurrentBroadcasts(t *testing.T) {
	hub, conn := dialHub(t)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Event{Type: EventNodeMoved})
		}()
	}
	wg.Wait()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < n; i++ {
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, EventNodeMoved, ev.Type)
	}
	assert.Equal(t, 1, hub.Count())
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	hub := newHub(quietLogger())
	hub.Remove("no-such-session")
	assert.Equal(t, 0, hub.Count())
}
