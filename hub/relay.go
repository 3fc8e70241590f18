package hub

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/P4rz1val22/chat-app/types"
)

const historyLimit = 50

// sentAtFormat is fixed-width so the stored strings sort the same way the
// timestamps do; ties fall back to the id column.
const sentAtFormat = "2006-01-02T15:04:05.000Z07:00"

// Relay persists chat messages and loads history. Sends to one room are
// serialized through a per-room lock held across persist and broadcast, so
// broadcast order always equals commit order. That lock is separate from the
// broadcast group's membership lock and is never held while touching typing
// state.
type Relay struct {
	DB *sql.DB

	mu        sync.Mutex
	sendLocks map[string]*sync.Mutex
}

func NewRelay(database *sql.DB) *Relay {
	return &Relay{
		DB:        database,
		sendLocks: make(map[string]*sync.Mutex),
	}
}

// SendLock returns the commit-ordering lock for one room.
func (r *Relay) SendLock(room string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.sendLocks[room]
	if !ok {
		lock = &sync.Mutex{}
		r.sendLocks[room] = lock
	}
	return lock
}

// Save validates and persists one message, returning the authoritative row.
func (r *Relay) Save(roomID, userID int, content string) (types.Message, error) {
	if strings.TrimSpace(content) == "" {
		return types.Message{}, &types.ValidationError{Msg: "Message is empty"}
	}

	sentAt := time.Now().UTC()
	var id int
	err := r.DB.QueryRow(
		`INSERT INTO messages (room_id, user_id, content, sent_at) VALUES (?, ?, ?, ?) RETURNING id`,
		roomID, userID, content, sentAt.Format(sentAtFormat),
	).Scan(&id)
	if err != nil {
		return types.Message{}, &types.PersistenceError{Op: "save message", Err: err}
	}

	return types.Message{ID: id, RoomID: roomID, UserID: userID, Content: content, SentAt: sentAt}, nil
}

// History returns the most recent messages for a room, oldest first. "Most
// recent N" and "oldest first" are different orderings, so it queries newest
// first and reverses.
func (r *Relay) History(roomID, limit int) ([]types.HistoryMessage, error) {
	rows, err := r.DB.Query(
		`SELECT m.id, m.content, m.sent_at, u.name, u.id
		 FROM messages m
		 JOIN users u ON m.user_id = u.id
		 WHERE m.room_id = ?
		 ORDER BY m.sent_at DESC, m.id DESC
		 LIMIT ?`, roomID, limit)
	if err != nil {
		return nil, &types.PersistenceError{Op: "load history", Err: err}
	}
	defer rows.Close()

	messages := make([]types.HistoryMessage, 0, limit)
	for rows.Next() {
		var msg types.HistoryMessage
		if err := rows.Scan(&msg.ID, &msg.Message, &msg.Timestamp, &msg.Username, &msg.UserID); err != nil {
			return nil, &types.PersistenceError{Op: "scan history", Err: err}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.PersistenceError{Op: "load history", Err: err}
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
