package hub

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/P4rz1val22/chat-app/auth"
	"github.com/P4rz1val22/chat-app/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleSocket upgrades the request and runs the connection's read loop: one
// goroutine per connection consuming inbound events in order.
func (h *Hub) HandleSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	conn.SetReadLimit(64 * 1024)
	defer conn.Close()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		log.Println("No identity in context")
		return
	}

	user, err := h.directory.EnsureUser(identity.Name, identity.Email)
	if err != nil {
		log.Println("Failed to resolve user:", err)
		_ = conn.WriteJSON(types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Something went wrong"}})
		return
	}

	client := h.Bind(conn, user)

	// Session-start provisioning: a user with no memberships gets the
	// default room before their first room-list read. A failure here is
	// reported like any other persistence failure instead of leaving the
	// client with a silently empty room list.
	if _, err := h.directory.GetOrCreateDefaultRoom(user.ID); err != nil {
		h.sendError(client, err)
	}

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var wsMsg types.WSMessage
		if err := json.Unmarshal(msgBytes, &wsMsg); err != nil {
			log.Println("Invalid message format:", err)
			continue
		}

		h.dispatchMessage(client, wsMsg)
	}

	h.Unbind(client)
}
