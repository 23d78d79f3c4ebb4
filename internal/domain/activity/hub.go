package activity

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Event is an access attempt pushed to the owner of the file.
type Event struct {
	Type      string    `json:"type"`
	FileID    string    `json:"file_id"`
	Filename  string    `json:"filename"`
	Method    string    `json:"method"`
	Granted   bool      `json:"granted"`
	Reason    string    `json:"reason,omitempty"`
	Counted   bool      `json:"counted"`
	Viewer    string    `json:"viewer"`
	ViewsLeft int       `json:"views_remaining"`
	At        time.Time `json:"at"`
}

const EventAccess = "access"

// Publisher is what the access engine needs from the hub.
type Publisher interface {
	Publish(ownerID int64, ev Event)
}

type connection struct {
	ownerID int64
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans events out to every open connection of an owner.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[int64]map[*connection]struct{})}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.ownerID]
	if !ok {
		set = make(map[*connection]struct{})
		h.connections[c.ownerID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.ownerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.connections, c.ownerID)
	}
}

// Connected returns the number of open connections for an owner.
func (h *Hub) Connected(ownerID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[ownerID])
}

// Publish never blocks: slow clients miss events.
func (h *Hub) Publish(ownerID int64, ev Event) {
	if ev.Type == "" {
		ev.Type = EventAccess
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("activity_marshal_failed owner_id=%d err=%v", ownerID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections[ownerID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ServeWS registers conn for ownerID and blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, ownerID int64) {
	c := &connection{
		ownerID: ownerID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only keeps the connection alive; clients send nothing useful.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("activity_ws_closed owner_id=%d err=%v", c.ownerID, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
