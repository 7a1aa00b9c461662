package auth

import "time"

// User represents a registered account. Role names are stored alongside the
// account and embedded into issued tokens; there is no separate role table.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
