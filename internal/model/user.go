package model

import "time"

// User is an account that can authenticate against the API. Passwords are
// stored as bcrypt hashes. The API key is a long-lived 32-char hex secret
// rotated only through the CLI.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"` // always lowercase
	PasswordHash string    `json:"-" db:"password_hash"`
	APIKey       string    `json:"-" db:"api_key"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
