// internal/httpserver/ws.go
//
// WebSocket fan-out of session snapshots.
// Every countdown tick and phase change of a session is pushed to all
// sockets watching that session id. Clients only listen; inbound frames are
// read to keep the connection alive and then dropped.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/game"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// message is one frame sent to watchers.
type message struct {
	SessionID string         `json:"sessionId"`
	Event     string         `json:"event"`
	Snapshot  *game.Snapshot `json:"snapshot,omitempty"`
}

type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub tracks sockets per session.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[*client]struct{}
	last     map[string]uint64 // highest snapshot seq published per session
	upgrader websocket.Upgrader
}

// NewHub creates a hub. allowOrigin decides which browser origins may
// connect; nil allows all.
func NewHub(allowOrigin func(origin string) bool) *Hub {
	h := &Hub{
		sessions: make(map[string]map[*client]struct{}),
		last:     make(map[string]uint64),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || allowOrigin == nil || allowOrigin(o)
		},
	}
	return h
}

// ServeWS upgrades the request and subscribes it to sessionID. The current
// snapshot, when given, is sent first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, first *game.Snapshot) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("websocket upgrade")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, 64), sessionID: sessionID}
	if first != nil {
		if data, err := json.Marshal(message{SessionID: sessionID, Event: "snapshot", Snapshot: first}); err == nil {
			c.send <- data
		}
	}
	h.register(c)
	go c.writePump()
	go c.readPump()
}

// Publish sends snap to every watcher of its session. It never blocks: a
// watcher whose buffer is full is dropped. A snapshot older than one already
// published for the session is discarded.
func (h *Hub) Publish(snap game.Snapshot) {
	if !h.accept(snap) {
		log.Debug().Str("session", snap.ID).Uint64("seq", snap.Seq).Msg("stale snapshot dropped")
		return
	}
	h.broadcast(message{SessionID: snap.ID, Event: "snapshot", Snapshot: &snap})
}

// accept records snap.Seq and reports whether it is newer than anything
// published before for the same session.
func (h *Hub) accept(snap game.Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if snap.Seq <= h.last[snap.ID] {
		return false
	}
	h.last[snap.ID] = snap.Seq
	return true
}

// CloseSession tells watchers the session is gone and disconnects them.
func (h *Hub) CloseSession(sessionID string) {
	h.broadcast(message{SessionID: sessionID, Event: "closed"})
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.sessions[sessionID] {
		h.unregisterLocked(c)
	}
	delete(h.last, sessionID)
}

// Watchers reports how many sockets follow sessionID.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) broadcast(m message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Warn().Err(err).Str("session", m.SessionID).Msg("marshal websocket message")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.sessions[m.SessionID] {
		select {
		case c.send <- data:
		default:
			h.unregisterLocked(c)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[c.sessionID] == nil {
		h.sessions[c.sessionID] = make(map[*client]struct{})
	}
	h.sessions[c.sessionID][c] = struct{}{}
	log.Debug().Str("session", c.sessionID).Int("watchers", len(h.sessions[c.sessionID])).Msg("websocket registered")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *client) {
	clients, ok := h.sessions[c.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("session", c.sessionID).Msg("websocket read")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
