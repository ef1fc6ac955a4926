package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	r := mux.NewRouter()
	r.HandleFunc("/api/aircraft/{id}/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsToAircraftSubscribers(t *testing.T) {
	hub, base := startHub(t)

	watcher := dial(t, base+"/api/aircraft/a-1/ws")
	other := dial(t, base+"/api/aircraft/a-2/ws")

	require.Eventually(t, func() bool {
		return hub.ClientCount("a-1") == 1 && hub.ClientCount("a-2") == 1
	}, time.Second, 10*time.Millisecond)

	hub.InventoryChanged(models.Aircraft{ID: "a-1", Capacity: 10, Remaining: 7})

	watcher.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := watcher.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeInventoryUpdated, msg.Type)
	assert.Equal(t, "a-1", msg.AircraftID)
	assert.Equal(t, 7, msg.Remaining)
	assert.Equal(t, 10, msg.Capacity)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, base := startHub(t)

	conn := dial(t, base+"/api/aircraft/a-1/ws")
	require.Eventually(t, func() bool { return hub.ClientCount("a-1") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount("a-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_InventoryChangedNeverBlocks(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.InventoryChanged(models.Aircraft{ID: "a-1", Capacity: 10, Remaining: i % 10})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("InventoryChanged blocked without a running hub")
	}
}
