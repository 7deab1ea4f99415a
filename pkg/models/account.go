package models

import "time"

// Account represents a linked mail account and its cached bearer token
type Account struct {
	Email        string    `db:"email"`         // Unique key
	Name         string    `db:"name"`          // Display name
	AccessToken  string    `db:"access_token"`  // Encrypted at rest
	RefreshToken string    `db:"refresh_token"` // Encrypted at rest, may be empty
	ExpiresAt    time.Time `db:"expires_at"`    // Absolute access token expiry
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// AccountInfo is the public view of an account exposed to other surfaces
type AccountInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Info returns the public view of the account
func (a *Account) Info() AccountInfo {
	return AccountInfo{Email: a.Email, Name: a.Name}
}
