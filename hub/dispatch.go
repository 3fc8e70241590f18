package hub

import (
	"encoding/json"
	"log"

	"github.com/P4rz1val22/chat-app/types"
)

func decodeData[T any](raw interface{}) (T, error) {
	var data T
	bytes, err := json.Marshal(raw)
	if err != nil {
		return data, err
	}
	err = json.Unmarshal(bytes, &data)
	return data, err
}

// dispatchMessage routes one inbound event to exactly one handler. Each event
// runs inside its own failure boundary: a panicking handler reports to the
// originating connection only and never takes down another session.
func (h *Hub) dispatchMessage(c *Conn, wsMsg types.WSMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling %s for connection %s: %v", wsMsg.Type, c.ID, r)
			safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Something went wrong"}})
		}
	}()

	switch wsMsg.Type {
	case "get_rooms":
		h.handleGetRooms(c)
	case "join_room":
		h.handleJoinRoom(c, &wsMsg)
	case "switch_room":
		h.handleSwitchRoom(c, &wsMsg)
	case "send_chat_message":
		h.handleSendChatMessage(c, &wsMsg)
	case "create_room":
		h.handleCreateRoom(c, &wsMsg)
	case "delete_room":
		h.handleDeleteRoom(c, &wsMsg)
	case "add_member":
		h.handleAddMember(c, &wsMsg)
	case "get_room_members":
		h.handleGetRoomMembers(c, &wsMsg)
	case "user_typing_start":
		h.handleTypingStart(c, &wsMsg)
	case "user_typing_stop":
		h.handleTypingStop(c)
	default:
		log.Println("Unknown message type:", wsMsg.Type)
	}
}
