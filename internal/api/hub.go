package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/brogue-dm/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBuffer     = 16
	broadcastQueue = 64
	maxReadSize    = 512
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans narrations out to websocket subscribers. Subscribers that cannot
// keep up are dropped.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte
	done       chan struct{}
	count      atomic.Int64
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // game hooks and local tools connect from anywhere
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
	}
}

// Run delivers broadcasts until ctx is canceled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) error {
	subs := map[*subscriber]struct{}{}
	drop := func(s *subscriber) {
		if _, ok := subs[s]; ok {
			delete(subs, s)
			close(s.send)
			h.count.Store(int64(len(subs)))
		}
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for s := range subs {
				drop(s)
			}
			return nil
		case s := <-h.register:
			subs[s] = struct{}{}
			h.count.Store(int64(len(subs)))
		case s := <-h.unregister:
			drop(s)
		case msg := <-h.broadcast:
			for s := range subs {
				select {
				case s.send <- msg:
				default:
					h.logger.Warn("dropping slow narration subscriber", "remote", s.conn.RemoteAddr().String())
					drop(s)
				}
			}
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	return int(h.count.Load())
}

// Publish queues a narration for delivery. It never blocks; when the queue is
// full the narration is discarded.
func (h *Hub) Publish(n models.Narration) {
	msg, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("failed to encode narration", "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("narration feed queue full, discarding", "event_type", n.EventType)
	}
}

// ServeHTTP upgrades the request and streams narrations until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}
	h.logger.Debug("narration subscriber connected", "remote", conn.RemoteAddr().String())

	go h.writePump(s)
	h.readPump(s)
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(s *subscriber) {
	s.conn.SetReadLimit(maxReadSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
