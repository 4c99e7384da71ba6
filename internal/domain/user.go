package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// service layer; responses carry a sanitized copy.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile holds the public-facing attributes of a user. Exactly one profile
// exists per user; it is inserted in the same transaction as the user row.
type Profile struct {
	UserID      int64
	DisplayName string
	Bio         string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
