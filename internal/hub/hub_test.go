package hub

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals-app/internal/domain"
)

func startHub(t *testing.T) (string, *Hub) {
	t.Helper()
	h := New()
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http"), h
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_PublishReachesEveryClient(t *testing.T) {
	wsURL, h := startHub(t)
	a := dial(t, wsURL)
	b := dial(t, wsURL)
	waitForClients(t, h, 2)

	report := domain.Report{ID: 7, Page: "/listings", Score: 87.5, Snapshot: domain.Snapshot{}.With(domain.LCP, 2600)}
	h.Publish(report)

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var m Message
		require.NoError(t, json.Unmarshal(msg, &m))
		assert.Equal(t, "report", m.Event)
		assert.Equal(t, report, m.Data)
	}
}

func TestHub_CountDecreasesOnDisconnect(t *testing.T) {
	wsURL, h := startHub(t)
	conn := dial(t, wsURL)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	wsURL, h := startHub(t)
	conn := dial(t, wsURL)
	waitForClients(t, h, 1)

	h.Close()
	assert.Equal(t, 0, h.Count())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection should be closed by the hub")

	h.Publish(domain.Report{ID: 1})
}

func TestHub_PublishWithoutClients(t *testing.T) {
	h := New()
	h.Publish(domain.Report{ID: 1})
	assert.Equal(t, 0, h.Count())
}
