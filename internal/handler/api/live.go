package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/service/metrics"
	"SectorPulse/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// LiveHub streams every published sentiment result to websocket clients. It
// implements ResultPublisher so the result pipeline can fan out to it.
type LiveHub struct {
	upgrader websocket.Upgrader
	log      *logger.Logger
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*liveClient]struct{}
	closed  bool
}

type liveClient struct {
	conn    *websocket.Conn
	send    chan []byte
	sectors map[string]bool // empty means all
	once    sync.Once
}

func (c *liveClient) wants(sector string) bool {
	return len(c.sectors) == 0 || c.sectors[sector]
}

func (c *liveClient) shutdown() {
	c.once.Do(func() { close(c.send) })
}

func NewLiveHub(log *logger.Logger) *LiveHub {
	if log == nil {
		log = logger.Nop()
	}
	return &LiveHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log.Component("live"),
		now:     time.Now,
		clients: make(map[*liveClient]struct{}),
	}
}

// ServeWS upgrades the request. ?sector=a&sector=b limits the stream.
func (h *LiveHub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", logger.Error(err))
		return nil
	}
	cl := &liveClient{conn: conn, send: make(chan []byte, sendBuffer), sectors: map[string]bool{}}
	for _, s := range c.QueryParams()["sector"] {
		if n := models.NormalizeSector(s); n != "" {
			cl.sectors[n] = true
		}
	}

	if !h.add(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return conn.Close()
	}
	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

func (h *LiveHub) add(cl *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	metrics.LiveClients.Set(float64(len(h.clients)))
	return true
}

func (h *LiveHub) remove(cl *liveClient) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		metrics.LiveClients.Set(float64(len(h.clients)))
	}
	h.mu.Unlock()
	cl.shutdown()
}

// readPump only services control frames; clients do not send data.
func (h *LiveHub) readPump(cl *liveClient) {
	defer func() {
		h.remove(cl)
		_ = cl.conn.Close()
	}()
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", logger.Error(err))
			}
			return
		}
	}
}

func (h *LiveHub) writePump(cl *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PublishResult broadcasts r. Clients whose buffer is full are disconnected
// rather than slowing the publisher.
func (h *LiveHub) PublishResult(_ context.Context, r *models.SectorSentimentResult) error {
	b, err := json.Marshal(models.NewSentimentEvent(r, h.now()))
	if err != nil {
		return err
	}

	var slow []*liveClient
	h.mu.RLock()
	for cl := range h.clients {
		if !cl.wants(r.Sector) {
			continue
		}
		select {
		case cl.send <- b:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.log.Warn("dropping slow websocket client")
		h.remove(cl)
	}
	return nil
}

// Clients is the number of connected clients.
func (h *LiveHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *LiveHub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*liveClient]struct{})
	metrics.LiveClients.Set(0)
	h.mu.Unlock()

	for cl := range clients {
		cl.shutdown()
	}
	return nil
}
