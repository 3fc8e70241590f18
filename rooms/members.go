package rooms

import (
	"strings"

	"github.com/P4rz1val22/chat-app/types"
)

// AddMember resolves the email to an existing account and inserts a
// member-role row. Returns the resolved user so the hub can push a refreshed
// room list to that user's connections.
func (d *Directory) AddMember(roomID int, email string, addedBy int) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.User{}, &types.ValidationError{Msg: "Email is required"}
	}

	if _, err := d.GetRoom(roomID); err != nil {
		return types.User{}, err
	}

	user, err := d.FindUserByEmail(email)
	if err != nil {
		return types.User{}, err
	}

	existing, err := isMember(d.DB, roomID, user.ID)
	if err != nil {
		return types.User{}, &types.PersistenceError{Op: "membership check", Err: err}
	}
	if existing {
		return types.User{}, &types.ConflictError{Msg: "User is already a member of this room"}
	}

	_, err = d.DB.Exec(
		`INSERT INTO room_members (room_id, user_id, role, added_by) VALUES (?, ?, 'member', ?)`,
		roomID, user.ID, addedBy,
	)
	if err != nil {
		return types.User{}, &types.PersistenceError{Op: "add member", Err: err}
	}
	return user, nil
}

// ListMembers returns the members of a room in join order.
func (d *Directory) ListMembers(roomID int) ([]types.User, error) {
	if _, err := d.GetRoom(roomID); err != nil {
		return nil, err
	}

	rows, err := d.DB.Query(
		`SELECT u.id, u.name, u.email, u.username FROM room_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.room_id = ?
		 ORDER BY m.id ASC`, roomID)
	if err != nil {
		return nil, &types.PersistenceError{Op: "list members", Err: err}
	}
	defer rows.Close()

	var members []types.User
	for rows.Next() {
		var user types.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Username); err != nil {
			return nil, &types.PersistenceError{Op: "scan member", Err: err}
		}
		members = append(members, user)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.PersistenceError{Op: "list members", Err: err}
	}
	return members, nil
}
