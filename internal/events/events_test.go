package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	types []string
}

func (r *recorder) Publish(_ context.Context, eventType string, _ interface{}) {
	r.types = append(r.types, eventType)
}

func TestMultiPublishesToAll(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, Nop{}, b}.Publish(context.Background(), "trade", nil)

	assert.Equal(t, []string{"trade"}, a.types)
	assert.Equal(t, []string{"trade"}, b.types)
}

func TestEncodeEnvelope(t *testing.T) {
	raw, err := Encode("trade", map[string]int{"market_id": 7})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "trade", decoded["type"])
	assert.Equal(t, float64(7), decoded["data"].(map[string]interface{})["market_id"])
	assert.NotEmpty(t, decoded["timestamp"])
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(ctx, "market_resolved", map[string]int{"outcome": 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "market_resolved", event.Type)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRedisBusSkipsOwnMessages(t *testing.T) {
	self := &RedisBus{origin: "a"}
	other := &RedisBus{origin: "b"}

	payload, err := self.encode("trade", map[string]int{"id": 1})
	require.NoError(t, err)

	event, err := self.decode(payload)
	require.NoError(t, err)
	assert.Nil(t, event)

	event, err = other.decode(payload)
	require.NoError(t, err)
	require.NotNil(t, event)

	var decoded Event
	require.NoError(t, json.Unmarshal(event, &decoded))
	assert.Equal(t, "trade", decoded.Type)

	_, err = other.decode([]byte("not json"))
	assert.Error(t, err)
}
