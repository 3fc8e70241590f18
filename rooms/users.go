package rooms

import (
	"database/sql"
	"strings"

	"github.com/P4rz1val22/chat-app/types"
)

// EnsureUser resolves an externally-authenticated identity to a durable user
// row, creating it on first reference. Rows are keyed by email; only the
// display name may change afterwards.
func (d *Directory) EnsureUser(name, email string) (types.User, error) {
	var user types.User
	err := d.DB.QueryRow(`SELECT id, name, email, username FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.Username)
	if err == nil {
		if user.Name != name && name != "" {
			if _, err := d.DB.Exec(`UPDATE users SET name = ? WHERE id = ?`, name, user.ID); err != nil {
				return types.User{}, &types.PersistenceError{Op: "update user name", Err: err}
			}
			user.Name = name
		}
		return user, nil
	}
	if err != sql.ErrNoRows {
		return types.User{}, &types.PersistenceError{Op: "find user", Err: err}
	}

	username := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	err = d.DB.QueryRow(
		`INSERT INTO users (name, email, username) VALUES (?, ?, ?) RETURNING id, name, email, username`,
		name, email, username,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Username)
	if err != nil {
		// Lost a create race: the unique email constraint means the row
		// exists now, so read it back.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			err = d.DB.QueryRow(`SELECT id, name, email, username FROM users WHERE email = ?`, email).
				Scan(&user.ID, &user.Name, &user.Email, &user.Username)
		}
		if err != nil {
			return types.User{}, &types.PersistenceError{Op: "create user", Err: err}
		}
	}
	return user, nil
}

// FindUserByEmail returns the user or a NotFoundError; no implicit invitation
// flow exists, the account must already be there.
func (d *Directory) FindUserByEmail(email string) (types.User, error) {
	var user types.User
	err := d.DB.QueryRow(`SELECT id, name, email, username FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.Username)
	if err == sql.ErrNoRows {
		return types.User{}, &types.NotFoundError{Msg: "User not found by email"}
	}
	if err != nil {
		return types.User{}, &types.PersistenceError{Op: "find user", Err: err}
	}
	return user, nil
}
