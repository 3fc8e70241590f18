package rooms

import (
	"database/sql"
	"strings"
	"time"

	"github.com/P4rz1val22/chat-app/db"
	"github.com/P4rz1val22/chat-app/types"
)

const (
	DefaultRoomName = "General"
	maxRoomNameLen  = 64
)

// Directory is the single source of truth for which rooms exist and who
// belongs to them. Member counts are always recomputed from membership rows
// at read time, never cached.
type Directory struct {
	DB *sql.DB
}

func NewDirectory(database *sql.DB) *Directory {
	return &Directory{DB: database}
}

func scanRoom(row interface {
	Scan(dest ...interface{}) error
}) (types.Room, error) {
	var room types.Room
	var isPrivate int
	var createdAt string
	err := row.Scan(&room.ID, &room.Name, &room.Type, &isPrivate, &room.CreatedBy, &createdAt, &room.MemberCount)
	if err != nil {
		return types.Room{}, err
	}
	room.IsPrivate = isPrivate != 0
	room.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return room, nil
}

const roomColumns = `r.id, r.name, r.type, r.is_private, r.created_by, r.created_at,
	(SELECT COUNT(*) FROM room_members mc WHERE mc.room_id = r.id) AS member_count`

// isMember reports whether a membership row exists. Callers pass either the
// pool or an open transaction.
func isMember(q db.Queryer, roomID, userID int) (bool, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM room_members WHERE room_id = ? AND user_id = ?`, roomID, userID).Scan(&count)
	return count > 0, err
}

// membershipCount returns how many rooms the user belongs to.
func membershipCount(q db.Queryer, userID int) (int, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM room_members WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// GetRoom returns the room with live member count, or a NotFoundError.
func (d *Directory) GetRoom(roomID int) (types.Room, error) {
	row := d.DB.QueryRow(`SELECT `+roomColumns+` FROM rooms r WHERE r.id = ?`, roomID)
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return types.Room{}, &types.NotFoundError{Msg: "Room not found"}
	}
	if err != nil {
		return types.Room{}, &types.PersistenceError{Op: "get room", Err: err}
	}
	return room, nil
}

// GetOrCreateDefaultRoom provisions the "General" room for a user with zero
// memberships. The count and the insert share one transaction so two
// first-time connects for the same user cannot both create a default room.
func (d *Directory) GetOrCreateDefaultRoom(userID int) (*types.Room, error) {
	var created *types.Room
	err := db.WithTransaction(d.DB, func(tx *sql.Tx) error {
		memberships, err := membershipCount(tx, userID)
		if err != nil {
			return err
		}
		if memberships > 0 {
			return nil
		}

		now := time.Now().UTC()
		var roomID int
		err = tx.QueryRow(
			`INSERT INTO rooms (name, type, is_private, created_by, created_at) VALUES (?, 'public_channel', 0, ?, ?) RETURNING id`,
			DefaultRoomName, userID, now.Format(time.RFC3339),
		).Scan(&roomID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO room_members (room_id, user_id, role, added_by) VALUES (?, ?, 'owner', ?)`,
			roomID, userID, userID,
		)
		if err != nil {
			return err
		}

		created = &types.Room{
			ID:          roomID,
			Name:        DefaultRoomName,
			Type:        "public_channel",
			CreatedBy:   userID,
			CreatedAt:   now,
			MemberCount: 1,
		}
		return nil
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "default room provisioning", Err: err}
	}
	return created, nil
}

// CreateRoom inserts a room and its owner membership as one transaction.
func (d *Directory) CreateRoom(name, roomType string, isPrivate bool, ownerID int) (types.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Room{}, &types.ValidationError{Msg: "Room name is required"}
	}
	if len(name) > maxRoomNameLen {
		return types.Room{}, &types.ValidationError{Msg: "Room name is too long"}
	}
	if roomType == "" {
		roomType = "group"
	}

	now := time.Now().UTC()
	privateFlag := 0
	if isPrivate {
		privateFlag = 1
	}

	var roomID int
	err := db.WithTransaction(d.DB, func(tx *sql.Tx) error {
		err := tx.QueryRow(
			`INSERT INTO rooms (name, type, is_private, created_by, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
			name, roomType, privateFlag, ownerID, now.Format(time.RFC3339),
		).Scan(&roomID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO room_members (room_id, user_id, role, added_by) VALUES (?, ?, 'owner', ?)`,
			roomID, ownerID, ownerID,
		)
		return err
	})
	if err != nil {
		return types.Room{}, &types.PersistenceError{Op: "create room", Err: err}
	}

	return types.Room{
		ID:          roomID,
		Name:        name,
		Type:        roomType,
		IsPrivate:   isPrivate,
		CreatedBy:   ownerID,
		CreatedAt:   now,
		MemberCount: 1,
	}, nil
}

// DeleteRoom removes a room and everything under it. Only the owner may do
// this; deletion order (messages, memberships, room) satisfies the foreign
// key constraints.
func (d *Directory) DeleteRoom(roomID, requesterID int) (types.Room, error) {
	room, err := d.GetRoom(roomID)
	if err != nil {
		return types.Room{}, err
	}
	if room.CreatedBy != requesterID {
		return types.Room{}, &types.AuthorizationError{Msg: "Only the room owner can delete this room"}
	}

	err = db.WithTransaction(d.DB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM messages WHERE room_id = ?`, roomID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM room_members WHERE room_id = ?`, roomID); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM rooms WHERE id = ?`, roomID)
		return err
	})
	if err != nil {
		return types.Room{}, &types.PersistenceError{Op: "delete room", Err: err}
	}
	return room, nil
}

// ListRoomsForUser returns the user's rooms newest-created first. Clients
// auto-select the first entry, so the ordering is part of the contract.
func (d *Directory) ListRoomsForUser(userID int) ([]types.Room, error) {
	rows, err := d.DB.Query(
		`SELECT `+roomColumns+` FROM rooms r
		 JOIN room_members m ON m.room_id = r.id
		 WHERE m.user_id = ?
		 ORDER BY r.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, &types.PersistenceError{Op: "list rooms", Err: err}
	}
	defer rows.Close()

	var userRooms []types.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, &types.PersistenceError{Op: "scan room", Err: err}
		}
		userRooms = append(userRooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.PersistenceError{Op: "list rooms", Err: err}
	}
	return userRooms, nil
}

// CanAccess reports whether a user may enter the room: public channels are
// open to everyone, anything else requires membership.
func (d *Directory) CanAccess(room types.Room, userID int) (bool, error) {
	if room.Type == "public_channel" && !room.IsPrivate {
		return true, nil
	}
	member, err := isMember(d.DB, room.ID, userID)
	if err != nil {
		return false, &types.PersistenceError{Op: "membership check", Err: err}
	}
	return member, nil
}
