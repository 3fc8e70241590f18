package hub

import (
	"log"
	"sync"

	"github.com/P4rz1val22/chat-app/types"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the runtime binding between one live websocket and its
// authenticated user. The hub is the only writer of the room field; everyone
// else reads it through Room().
type Conn struct {
	ID       string
	Socket   *websocket.Conn
	UserID   int
	Username string
	Email    string

	// SendQueue is never closed; teardown signals Done instead, so a send
	// racing Unbind lands in the buffer harmlessly rather than panicking.
	SendQueue chan types.WSMessage
	Done      chan struct{}

	mu   sync.Mutex
	room string // current room id, "" when none joined yet
}

func (c *Conn) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Conn) setRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

func (c *Conn) WritePump() {
	defer c.Socket.Close()

	for {
		select {
		case msg := <-c.SendQueue:
			if err := c.Socket.WriteJSON(msg); err != nil {
				log.Println("WritePump error:", err)
				return
			}
		case <-c.Done:
			return
		}
	}
}

// Bind registers a freshly-upgraded socket with no room joined yet.
func (h *Hub) Bind(socket *websocket.Conn, user types.User) *Conn {
	c := &Conn{
		ID:        uuid.New().String(),
		Socket:    socket,
		UserID:    user.ID,
		Username:  user.Name,
		Email:     user.Email,
		SendQueue: make(chan types.WSMessage, 64),
		Done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	go c.WritePump()
	return c
}

// Unbind tears a connection down: typing cleanup in whatever room it was in,
// removal from its broadcast group, then removal of the binding itself. Safe
// to call for a connection that never completed Bind.
func (h *Hub) Unbind(c *Conn) {
	if c == nil {
		return
	}

	if data, ok := h.tracker.Stop(c.ID); ok {
		h.BroadcastToRoom(data.Room, types.WSMessage{Type: "user_stopped_typing", Data: data}, c.ID)
	}

	h.leaveGroup(c)

	h.mu.Lock()
	_, registered := h.conns[c.ID]
	delete(h.conns, c.ID)
	h.mu.Unlock()

	if registered {
		close(c.Done)
	}
}

// SwitchRoom moves a connection into a room it is allowed to see: typing
// cleanup in the old room first, then the subscription change, then history
// replay to this connection only.
func (h *Hub) SwitchRoom(c *Conn, roomKey string) error {
	roomID, err := parseRoomID(roomKey)
	if err != nil {
		return err
	}
	room, err := h.directory.GetRoom(roomID)
	if err != nil {
		return err
	}
	allowed, err := h.directory.CanAccess(room, c.UserID)
	if err != nil {
		return err
	}
	if !allowed {
		return &types.NotFoundError{Msg: "Room not found"}
	}

	if data, ok := h.tracker.Stop(c.ID); ok {
		h.BroadcastToRoom(data.Room, types.WSMessage{Type: "user_stopped_typing", Data: data}, c.ID)
	}

	h.leaveGroup(c)
	h.joinGroup(c, roomKey)

	history, err := h.relay.History(roomID, historyLimit)
	if err != nil {
		return err
	}
	for i := range history {
		history[i].Room = roomKey
	}
	safeSend(c, types.WSMessage{
		Type: "message_history",
		Data: types.MessageHistoryData{Room: roomKey, Messages: history},
	})
	return nil
}

func (h *Hub) joinGroup(c *Conn, room string) {
	g := h.group(room)
	g.mu.Lock()
	g.Conns[c.ID] = c
	g.mu.Unlock()
	c.setRoom(room)
}

func (h *Hub) leaveGroup(c *Conn) {
	room := c.Room()
	if room == "" {
		return
	}
	if g, ok := h.lookupGroup(room); ok {
		g.mu.Lock()
		delete(g.Conns, c.ID)
		g.mu.Unlock()
	}
	c.setRoom("")
}
