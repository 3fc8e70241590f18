package types

// WSMessage is the envelope every socket event travels in, both directions.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// Room management

type GetRoomsData struct {
	UserID string `json:"userId"`
}

type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	Type        string `json:"type"`
	IsPrivate   bool   `json:"isPrivate"`
	CreatedBy   string `json:"createdBy"`
	CreatedAt   string `json:"createdAt"`
}

type RoomsListData struct {
	Rooms []RoomInfo `json:"rooms"`
}

type JoinRoomData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type SwitchRoomData struct {
	OldRoom  string `json:"oldRoom"`
	NewRoom  string `json:"newRoom"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type CreateRoomData struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsPrivate   bool   `json:"isPrivate"`
	CreatedByID string `json:"createdById"`
}

type RoomCreatedData struct {
	Room      RoomInfo `json:"room"`
	CreatedBy string   `json:"createdBy"`
}

type DeleteRoomData struct {
	RoomID    string `json:"roomId"`
	DeletedBy string `json:"deletedBy"`
}

type RoomDeletedData struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type AddMemberData struct {
	RoomID  string `json:"roomId"`
	Email   string `json:"email"`
	AddedBy string `json:"addedBy"`
}

type MemberAddedData struct {
	RoomID  string `json:"roomId"`
	Email   string `json:"email"`
	Success bool   `json:"success"`
}

type UserRoomsUpdatedData struct {
	UserID string     `json:"userId"`
	Rooms  []RoomInfo `json:"rooms"`
}

type GetRoomMembersData struct {
	RoomID string `json:"roomId"`
}

type RoomMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type RoomMembersData struct {
	RoomID  string       `json:"roomId"`
	Members []RoomMember `json:"members"`
}

// Messaging

type SendMessageData struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Room     string `json:"room"`
	TempID   string `json:"tempId"`
}

type ChatMessageData struct {
	ID        int    `json:"id"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	UserID    int    `json:"userId"`
	Room      string `json:"room"`
	Timestamp string `json:"timestamp"`
	SocketID  string `json:"socketId"`
	TempID    string `json:"tempId,omitempty"`
}

type HistoryMessage struct {
	ID        int    `json:"id"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	UserID    int    `json:"userId"`
	Timestamp string `json:"timestamp"`
	Room      string `json:"room"`
}

type MessageHistoryData struct {
	Room     string           `json:"room"`
	Messages []HistoryMessage `json:"messages"`
}

type MessageErrorData struct {
	TempID  string `json:"tempId"`
	Message string `json:"message"`
}

// Typing indicators

type TypingData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type TypingEventData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}
