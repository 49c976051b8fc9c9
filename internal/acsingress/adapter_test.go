package acsingress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/envelope"
)

type fakeBus struct {
	mu    sync.Mutex
	items []envelope.Envelope
}

func (f *fakeBus) Publish(_ context.Context, item interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item.(envelope.Envelope))
	return true
}

func (f *fakeBus) snapshot() []envelope.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]envelope.Envelope, len(f.items))
	copy(out, f.items)
	return out
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestReadLoopPublishesSequencedEnvelopes(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for i := 0; i < 3; i++ {
			frame := map[string]interface{}{"call_id": "call-1", "type": "control"}
			b, _ := json.Marshal(frame)
			conn.WriteMessage(websocket.TextMessage, b)
		}
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	fb := &fakeBus{}
	a := New(wsURL(server), "ws-1", commons.NewNopLogger(), fb, 10*time.Millisecond, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	items := fb.snapshot()
	require.GreaterOrEqual(t, len(items), 3)
	assert.Equal(t, int64(1), items[0].Trace.Sequence)
	assert.Equal(t, int64(2), items[1].Trace.Sequence)
	assert.Equal(t, int64(3), items[2].Trace.Sequence)
}

func TestMalformedFrameDropsWithoutPublishing(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		time.Sleep(30 * time.Millisecond)
	}))
	defer server.Close()

	fb := &fakeBus{}
	a := New(wsURL(server), "ws-1", commons.NewNopLogger(), fb, 10*time.Millisecond, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	assert.Empty(t, fb.snapshot())
}

func TestInvalidAudioMetadataDropsWithoutPublishing(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		frame := map[string]interface{}{
			"call_id": "call-1",
			"type":   "audio",
			"payload": map[string]interface{}{
				"audio_b64": "not-valid-base64!!",
			},
		}
		b, _ := json.Marshal(frame)
		conn.WriteMessage(websocket.TextMessage, b)
		time.Sleep(30 * time.Millisecond)
	}))
	defer server.Close()

	fb := &fakeBus{}
	a := New(wsURL(server), "ws-1", commons.NewNopLogger(), fb, 10*time.Millisecond, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	assert.Empty(t, fb.snapshot())
}

func TestSequenceNeverResetsAcrossReconnect(t *testing.T) {
	var connCount int
	var mu sync.Mutex
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		mu.Lock()
		connCount++
		n := connCount
		mu.Unlock()

		frame := map[string]interface{}{"call_id": "call-1", "type": "control", "n": n}
		b, _ := json.Marshal(frame)
		conn.WriteMessage(websocket.TextMessage, b)
		conn.Close() // force a reconnect
	}))
	defer server.Close()

	fb := &fakeBus{}
	a := New(wsURL(server), "ws-1", commons.NewNopLogger(), fb, 5*time.Millisecond, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	a.Run(ctx)

	items := fb.snapshot()
	require.GreaterOrEqual(t, len(items), 2)
	for i := 1; i < len(items); i++ {
		assert.Greater(t, items[i].Trace.Sequence, items[i-1].Trace.Sequence)
	}
}
