package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/sessiondeck/folderdeck/internal/capability"
	"github.com/sessiondeck/folderdeck/internal/folders"
)

func TestHubRelaysStoreChanges(t *testing.T) {
	store, err := folders.NewStore(capability.NewMemoryStorage(), folders.WithSyncWrites())
	require.NoError(t, err)
	store.Load(context.Background())
	t.Cleanup(store.Close)

	hub := NewHub()
	cancel := hub.Attach(store)
	t.Cleanup(cancel)

	server := httptest.NewServer(http.HandlerFunc(hub.Serve))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	folder, err := store.CreateFolder(context.Background(), "Relayed", "", nil)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))
	require.Equal(t, string(folders.ChangeFolderCreated), message.Event)

	payload, ok := message.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, folder.ID, payload["folder_id"])
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(hub.Serve))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}
