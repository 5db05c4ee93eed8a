// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt output — the salt is embedded in the hash
// string, so no separate salt column is needed, and the plaintext password
// is never stored anywhere.
//
// Token holds the user's single current session JWT. It is overwritten on
// every login and set to "" on logout. The auth gate compares the presented
// token against this field, which is what invalidates older tokens even
// though they remain cryptographically valid until their expiry.
//
// Both sensitive fields carry `json:"-"` so they can never leak through an
// API response, no matter which handler serializes the struct.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"` // unique, syntax-validated at signup
	PasswordHash string    `json:"-"         db:"password_hash"`
	Token        string    `json:"-"         db:"token"` // "" when logged out
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
