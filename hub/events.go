package hub

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/P4rz1val22/chat-app/types"
)

func parseRoomID(roomKey string) (int, error) {
	roomID, err := strconv.Atoi(roomKey)
	if err != nil || roomID <= 0 {
		return 0, &types.ValidationError{Msg: "Invalid room id"}
	}
	return roomID, nil
}

func roomInfo(r types.Room) types.RoomInfo {
	return types.RoomInfo{
		ID:          strconv.Itoa(r.ID),
		Name:        r.Name,
		MemberCount: r.MemberCount,
		Type:        r.Type,
		IsPrivate:   r.IsPrivate,
		CreatedBy:   strconv.Itoa(r.CreatedBy),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func roomInfos(userRooms []types.Room) []types.RoomInfo {
	infos := make([]types.RoomInfo, 0, len(userRooms))
	for _, r := range userRooms {
		infos = append(infos, roomInfo(r))
	}
	return infos
}

// sendError reports a failed operation to the originating connection only.
// Persistence failures are logged with full context and leave the process as
// a generic message.
func (h *Hub) sendError(c *Conn, err error) {
	var pe *types.PersistenceError
	if errors.As(err, &pe) {
		log.Printf("persistence failure for connection %s: %v", c.ID, err)
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Something went wrong"}})
		return
	}
	safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: err.Error()}})
}

func (h *Hub) pushRoomsUpdate(userID int) {
	userRooms, err := h.directory.ListRoomsForUser(userID)
	if err != nil {
		log.Printf("failed to refresh room list for user %d: %v", userID, err)
		return
	}
	h.SendToUser(userID, types.WSMessage{
		Type: "user_rooms_updated",
		Data: types.UserRoomsUpdatedData{UserID: strconv.Itoa(userID), Rooms: roomInfos(userRooms)},
	})
}

func (h *Hub) handleGetRooms(c *Conn) {
	userRooms, err := h.directory.ListRoomsForUser(c.UserID)
	if err != nil {
		h.sendError(c, err)
		return
	}
	safeSend(c, types.WSMessage{Type: "rooms_list", Data: types.RoomsListData{Rooms: roomInfos(userRooms)}})
}

func (h *Hub) handleJoinRoom(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.JoinRoomData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid join room data"}})
		return
	}
	if err := h.SwitchRoom(c, data.Room); err != nil {
		h.sendError(c, err)
	}
}

func (h *Hub) handleSwitchRoom(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.SwitchRoomData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid switch room data"}})
		return
	}
	// The registry knows the old room authoritatively; the payload's oldRoom
	// is advisory and ignored.
	if err := h.SwitchRoom(c, data.NewRoom); err != nil {
		h.sendError(c, err)
	}
}

func (h *Hub) handleSendChatMessage(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.SendMessageData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid chat message data"}})
		return
	}

	roomID, err := parseRoomID(data.Room)
	if err != nil {
		h.sendError(c, err)
		return
	}
	if _, err := h.directory.GetRoom(roomID); err != nil {
		h.sendError(c, err)
		return
	}

	// Hold the room's ordering lock across persist and broadcast so the
	// relative broadcast order of two sends equals their commit order.
	lock := h.relay.SendLock(data.Room)
	lock.Lock()
	msg, err := h.relay.Save(roomID, c.UserID, data.Message)
	if err != nil {
		lock.Unlock()
		var pe *types.PersistenceError
		if errors.As(err, &pe) {
			log.Printf("failed to save message for connection %s: %v", c.ID, err)
			safeSend(c, types.WSMessage{
				Type: "message_error",
				Data: types.MessageErrorData{TempID: data.TempID, Message: "Failed to send message"},
			})
			return
		}
		h.sendError(c, err)
		return
	}

	h.BroadcastToRoom(data.Room, types.WSMessage{
		Type: "chat_message",
		Data: types.ChatMessageData{
			ID:        msg.ID,
			Message:   msg.Content,
			Username:  c.Username,
			UserID:    c.UserID,
			Room:      data.Room,
			Timestamp: msg.SentAt.Format(sentAtFormat),
			SocketID:  c.ID,
			TempID:    data.TempID,
		},
	}, "")
	lock.Unlock()
}

func (h *Hub) handleCreateRoom(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.CreateRoomData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid create room data"}})
		return
	}

	room, err := h.directory.CreateRoom(data.Name, data.Type, data.IsPrivate, c.UserID)
	if err != nil {
		h.sendError(c, err)
		return
	}

	safeSend(c, types.WSMessage{
		Type: "room_created",
		Data: types.RoomCreatedData{Room: roomInfo(room), CreatedBy: strconv.Itoa(c.UserID)},
	})
	h.pushRoomsUpdate(c.UserID)
}

func (h *Hub) handleDeleteRoom(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.DeleteRoomData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid delete room data"}})
		return
	}

	roomID, err := parseRoomID(data.RoomID)
	if err != nil {
		h.sendError(c, err)
		return
	}
	room, err := h.directory.DeleteRoom(roomID, c.UserID)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.BroadcastToRoom(data.RoomID, types.WSMessage{
		Type: "room_deleted",
		Data: types.RoomDeletedData{RoomID: data.RoomID, Name: room.Name},
	}, "")

	// Evict every connection still bound to the deleted room.
	var evicted []*Conn
	if g, ok := h.lookupGroup(data.RoomID); ok {
		g.mu.Lock()
		for _, member := range g.Conns {
			evicted = append(evicted, member)
		}
		g.Conns = make(map[string]*Conn)
		g.mu.Unlock()
	}
	h.dropGroup(data.RoomID)

	notified := make(map[int]bool)
	for _, member := range evicted {
		h.tracker.Stop(member.ID)
		member.setRoom("")
		if !notified[member.UserID] {
			notified[member.UserID] = true
			h.pushRoomsUpdate(member.UserID)
		}
	}
	if !notified[c.UserID] {
		h.pushRoomsUpdate(c.UserID)
	}
}

func (h *Hub) handleAddMember(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.AddMemberData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid add member data"}})
		return
	}

	roomID, err := parseRoomID(data.RoomID)
	if err != nil {
		h.sendError(c, err)
		return
	}
	user, err := h.directory.AddMember(roomID, data.Email, c.UserID)
	if err != nil {
		h.sendError(c, err)
		return
	}

	safeSend(c, types.WSMessage{
		Type: "member_added",
		Data: types.MemberAddedData{RoomID: data.RoomID, Email: data.Email, Success: true},
	})
	h.pushRoomsUpdate(user.ID)
}

func (h *Hub) handleGetRoomMembers(c *Conn, wsMsg *types.WSMessage) {
	data, err := decodeData[types.GetRoomMembersData](wsMsg.Data)
	if err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid room members request"}})
		return
	}

	roomID, err := parseRoomID(data.RoomID)
	if err != nil {
		h.sendError(c, err)
		return
	}
	members, err := h.directory.ListMembers(roomID)
	if err != nil {
		h.sendError(c, err)
		return
	}

	memberList := make([]types.RoomMember, 0, len(members))
	for _, m := range members {
		memberList = append(memberList, types.RoomMember{ID: strconv.Itoa(m.ID), Name: m.Name, Email: m.Email})
	}
	safeSend(c, types.WSMessage{
		Type: "room_members",
		Data: types.RoomMembersData{RoomID: data.RoomID, Members: memberList},
	})
}

func (h *Hub) handleTypingStart(c *Conn, wsMsg *types.WSMessage) {
	if _, err := decodeData[types.TypingData](wsMsg.Data); err != nil {
		safeSend(c, types.WSMessage{Type: "error", Data: types.ErrorData{Message: "Invalid typing data"}})
		return
	}

	// The registry's binding decides which room the mark lands in, not the
	// payload, so a stale client cannot type into a room it already left.
	room := c.Room()
	if room == "" {
		return
	}
	userID := strconv.Itoa(c.UserID)

	stopped, started := h.tracker.Start(c.ID, room, c.Username, userID)
	if stopped != nil {
		h.BroadcastToRoom(stopped.Room, types.WSMessage{Type: "user_stopped_typing", Data: *stopped}, c.ID)
	}
	if started {
		h.BroadcastToRoom(room, types.WSMessage{
			Type: "user_typing",
			Data: types.TypingEventData{Room: room, Username: c.Username, UserID: userID},
		}, c.ID)
	}
}

func (h *Hub) handleTypingStop(c *Conn) {
	if data, ok := h.tracker.Stop(c.ID); ok {
		h.BroadcastToRoom(data.Room, types.WSMessage{Type: "user_stopped_typing", Data: data}, c.ID)
	}
}
