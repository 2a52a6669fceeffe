package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/daryltucker/pfr-console/internal/output"
)

const writeWait = 10 * time.Second

// Msg is one websocket frame in either direction.
type Msg struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Message types.
const (
	MsgState  = "state"
	MsgSet    = "set"
	MsgPreset = "preset"
	MsgStart  = "start"
	MsgExport = "export"
	MsgCSV    = "csv"
	MsgError  = "error"
)

func newMsg(typ string, v any) Msg {
	m := Msg{Type: typ}
	if v == nil {
		return m
	}
	data, err := json.Marshal(v)
	if err != nil {
		output.Logger.WithFields(logrus.Fields{"type": typ, "error": err}).Error("Failed to marshal message")
		return Msg{Type: MsgError, Content: mustText(err.Error())}
	}
	m.Content = data
	return m
}

func mustText(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

type directMsg struct {
	conn *websocket.Conn
	msg  Msg
}

// Hub owns every client connection. All writes happen on the run goroutine,
// so a connection never sees concurrent writers.
type Hub struct {
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan Msg
	send      chan directMsg
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub starts a hub. Call Close to stop it.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan Msg, 16),
		send:      make(chan directMsg, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
		case conn := <-h.remove:
			h.drop(conn)
		case m := <-h.send:
			if h.clients[m.conn] {
				h.write(m.conn, m.msg)
			}
		case m := <-h.broadcast:
			for conn := range h.clients {
				h.write(conn, m)
			}
		case <-h.quit:
			for conn := range h.clients {
				h.drop(conn)
			}
			return
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, m Msg) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(&m); err != nil {
		output.Logger.WithFields(logrus.Fields{"remote": conn.RemoteAddr().String(), "error": err}).Warn("Failed to send to websocket client")
		h.drop(conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Register adds conn to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.quit:
		conn.Close()
	}
}

// Remove closes conn and forgets it.
func (h *Hub) Remove(conn *websocket.Conn) {
	select {
	case h.remove <- conn:
	case <-h.quit:
	}
}

// Broadcast queues m for every client.
func (h *Hub) Broadcast(m Msg) {
	select {
	case h.broadcast <- m:
	case <-h.quit:
	}
}

// Send queues m for one client.
func (h *Hub) Send(conn *websocket.Conn, m Msg) {
	select {
	case h.send <- directMsg{conn: conn, msg: m}:
	case <-h.quit:
	}
}

// Close disconnects every client and stops the hub.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
	<-h.done
}
