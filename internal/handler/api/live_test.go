package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
)

func dialHub(t *testing.T, hub *LiveHub, query string) *websocket.Conn {
	t.Helper()
	e := echo.New()
	NewSectorsEchoHandler(nil, &fakeSectors{}, WithLive(hub)).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sentiment" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *LiveHub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, time.Second, 5*time.Millisecond)
}

func TestLiveHubBroadcasts(t *testing.T) {
	hub := NewLiveHub(nil)
	conn := dialHub(t, hub, "")
	waitClients(t, hub, 1)

	require.NoError(t, hub.PublishResult(context.Background(), res("energy", 0.3)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev models.SentimentEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, models.SentimentEventType, ev.Type)
	assert.Equal(t, "energy", ev.Result.Sector)
	assert.Equal(t, 0.3, ev.Result.SentimentScore)
}

func TestLiveHubSectorFilter(t *testing.T) {
	hub := NewLiveHub(nil)
	conn := dialHub(t, hub, "?sector=Health%20Care")
	waitClients(t, hub, 1)

	require.NoError(t, hub.PublishResult(context.Background(), res("energy", 0.3)))
	require.NoError(t, hub.PublishResult(context.Background(), res("health_care", -0.2)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev models.SentimentEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "health_care", ev.Result.Sector)
}

func TestLiveHubCloseDisconnects(t *testing.T) {
	hub := NewLiveHub(nil)
	conn := dialHub(t, hub, "")
	waitClients(t, hub, 1)

	require.NoError(t, hub.Close())
	assert.Zero(t, hub.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
