package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourpulse/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger(), nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

// registerTestClient registers a mock-backed client and waits until the
// hub has processed the registration.
func registerTestClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClientWithConnection(hub, NewMockConnection(), testLogger())
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() > 0
	}, time.Second, 5*time.Millisecond)
	return client
}

// drainMessage receives one message from the client's send buffer.
func drainMessage(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-client.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubRegisterSendsConnectionMessage(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)

	msg := drainMessage(t, client)
	assert.Equal(t, TypeConnection, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.id, data["client_id"])
}

func TestHubUnregister(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)

	hub.unregister <- client
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// The send channel must be closed so the write pump exits.
	drainClosed := func() bool {
		for {
			select {
			case _, ok := <-client.send:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}
	assert.Eventually(t, drainClosed, time.Second, 5*time.Millisecond)
}

func TestHubBroadcastUpdate(t *testing.T) {
	hub := newRunningHub(t)
	first := registerTestClient(t, hub)
	second := NewClientWithConnection(hub, NewMockConnection(), testLogger())
	hub.Register(second)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, time.Second, 5*time.Millisecond)

	// Discard the connection greetings.
	drainMessage(t, first)
	drainMessage(t, second)

	hub.BroadcastUpdate(TypeDataUpdate, SubtypeDataset, ActionRefresh, map[string]interface{}{"records": 5})

	for _, client := range []*Client{first, second} {
		msg := drainMessage(t, client)
		assert.Equal(t, TypeDataUpdate, msg["type"])
		assert.Equal(t, SubtypeDataset, msg["subtype"])
		assert.Equal(t, ActionRefresh, msg["action"])
	}
}

func TestHubBroadcastRefresh(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)
	drainMessage(t, client)

	hub.BroadcastRefresh(domain.DatasetInfo{
		Records:  768,
		From:     time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC),
		Regions:  []string{"Alpha", "Beta"},
		LoadedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})

	msg := drainMessage(t, client)
	assert.Equal(t, TypeDataUpdate, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 768, data["records"])
	assert.Equal(t, "2019-05-31", data["from"])
	assert.Equal(t, "2020-06-30", data["to"])
	assert.EqualValues(t, 2, data["regions"])
}

func TestHubBroadcastError(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)
	drainMessage(t, client)

	hub.BroadcastError("DATASET_RELOAD_FAILED", "source file went away")

	msg := drainMessage(t, client)
	assert.Equal(t, TypeError, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "DATASET_RELOAD_FAILED", data["code"])
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()

	hub.Stop()
	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubStartIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	hub.Start()
	defer hub.Stop()

	client := registerTestClient(t, hub)
	assert.NotNil(t, client)
}

func TestHubMetricsSnapshot(t *testing.T) {
	hub := newRunningHub(t)
	client := registerTestClient(t, hub)
	drainMessage(t, client)

	hub.BroadcastUpdate(TypeDataUpdate, SubtypeDataset, ActionRefresh, nil)
	drainMessage(t, client)

	require.Eventually(t, func() bool {
		stats := hub.GetHubMetrics()
		return stats["messages_sent"].(int64) >= 1
	}, time.Second, 5*time.Millisecond)

	stats := hub.GetHubMetrics()
	assert.Equal(t, 1, stats["active_clients"])
	assert.EqualValues(t, 1, stats["total_connections"])
}
