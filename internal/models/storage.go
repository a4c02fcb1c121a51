package models

import "time"

// InternalUser is a trading account identity.
type InternalUser struct {
	AccountID    string    `json:"account_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// IsAdmin reports whether the user may use the admin surface.
func (u *InternalUser) IsAdmin() bool {
	return u.Role == "admin"
}

// SystemKV is a system-level key-value entry (schema versions, API keys).
type SystemKV struct {
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	DateTime time.Time `json:"datetime"`
}
