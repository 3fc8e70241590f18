package types

import "time"

type User struct {
	ID       int
	Name     string
	Email    string
	Username string
}

type Room struct {
	ID          int
	Name        string
	Type        string // "direct", "group" or "public_channel"
	IsPrivate   bool
	CreatedBy   int
	CreatedAt   time.Time
	MemberCount int
}

type Membership struct {
	ID      int
	RoomID  int
	UserID  int
	Role    string // "owner", "admin" or "member"
	AddedBy int
}

type Message struct {
	ID      int
	RoomID  int
	UserID  int
	Content string
	SentAt  time.Time
}
