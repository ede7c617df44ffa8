package models

import "time"

// User is owned by the account service; the messenger core only reads
// identity and maintains the presence columns.
type User struct {
	ID         int64     `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Email      string    `db:"email" json:"email,omitempty"`
	Online     bool      `db:"online" json:"online"`
	LastActive time.Time `db:"last_active" json:"last_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
