package models

import "time"

// User is a registered account. Email is stored trimmed and lower-cased.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
