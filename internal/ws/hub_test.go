package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/events"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, nil))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_ForwardsRankingEvents(t *testing.T) {
	t.Parallel()
	hub, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	now := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	ignored, err := events.NewEvent("card.updated", map[string]string{"id": "x"}, now)
	require.NoError(t, err)
	require.NoError(t, hub.HandleEvent(context.Background(), ignored))

	published, err := events.NewEvent(events.TypeRankingPublished, events.RankingPublished{
		Version:  7,
		Variants: []string{"weekly", "lifetime", "mastery"},
	}, now)
	require.NoError(t, err)
	require.NoError(t, hub.HandleEvent(context.Background(), published))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, events.TypeRankingPublished, got.Type)
	assert.Equal(t, published.ID, got.ID)

	var payload events.RankingPublished
	require.NoError(t, got.UnmarshalPayload(&payload))
	assert.Equal(t, int64(7), payload.Version)
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	t.Parallel()
	hub, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte("{}"))
		assert.False(t, hub.Register(NewClient(hub, nil)))
		hub.Unregister(NewClient(hub, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no list accepts all", allowed: nil, origin: "https://evil.example", want: true},
		{name: "wildcard accepts all", allowed: []string{"*"}, origin: "https://evil.example", want: true},
		{name: "listed origin", allowed: []string{"https://quiz.example/"}, origin: "https://Quiz.example", want: true},
		{name: "unlisted origin", allowed: []string{"https://quiz.example"}, origin: "https://evil.example", want: false},
		{name: "missing origin header", allowed: []string{"https://quiz.example"}, origin: "", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/ws/rankings", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}
