package hub

import (
	"database/sql"
	"log"
	"sync"

	"github.com/P4rz1val22/chat-app/rooms"
	"github.com/P4rz1val22/chat-app/types"
	"github.com/P4rz1val22/chat-app/typing"
)

// Hub routes every inbound client event to exactly one handler and owns the
// in-memory maps of live connections and per-room broadcast groups.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	groups map[string]*Group

	directory *rooms.Directory
	tracker   *typing.Tracker
	relay     *Relay
}

// Group is one room's set of subscribed connections.
type Group struct {
	mu    sync.Mutex
	Conns map[string]*Conn
}

func NewHub(database *sql.DB, directory *rooms.Directory) *Hub {
	h := &Hub{
		conns:     make(map[string]*Conn),
		groups:    make(map[string]*Group),
		directory: directory,
		relay:     NewRelay(database),
	}
	h.tracker = typing.NewTracker(func(connID string, data types.TypingEventData) {
		h.BroadcastToRoom(data.Room, types.WSMessage{Type: "user_stopped_typing", Data: data}, connID)
	})
	return h
}

func (h *Hub) group(room string) *Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[room]
	if !ok {
		g = &Group{Conns: make(map[string]*Conn)}
		h.groups[room] = g
	}
	return g
}

func (h *Hub) lookupGroup(room string) (*Group, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[room]
	return g, ok
}

func (h *Hub) dropGroup(room string) {
	h.mu.Lock()
	delete(h.groups, room)
	h.mu.Unlock()
}

// BroadcastToRoom sends msg to every connection subscribed to the room,
// skipping excludeConnID when non-empty.
func (h *Hub) BroadcastToRoom(room string, msg types.WSMessage, excludeConnID string) {
	g, ok := h.lookupGroup(room)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, c := range g.Conns {
		if id == excludeConnID {
			continue
		}
		safeSend(c, msg)
	}
}

// SendToUser sends msg to every live connection bound to the user.
func (h *Hub) SendToUser(userID int, msg types.WSMessage) {
	h.mu.Lock()
	targets := make([]*Conn, 0, 2)
	for _, c := range h.conns {
		if c.UserID == userID {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		safeSend(c, msg)
	}
}

func safeSend(c *Conn, msg types.WSMessage) {
	select {
	case c.SendQueue <- msg:
	default:
		log.Printf("safeSend: send queue full for connection %s, dropping %s", c.ID, msg.Type)
	}
}
