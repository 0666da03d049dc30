package entities

import "time"

// User is a person who can sign in and own or share catalogs. Password
// is the bcrypt hash, never the plaintext; it is nil for SSO-only
// accounts in deployments that don't use password auth at all.
type User struct {
	Email         string     `json:"email" db:"email"`
	Password      *string    `json:"-" db:"password"`
	Name          string     `json:"name" db:"name"`
	Administrator bool       `json:"administrator" db:"administrator"`
	Verified      bool       `json:"verified" db:"verified"`
	Created       time.Time  `json:"created" db:"created"`
	LastLogin     *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// AuthToken is an opaque, DB-resident bearer credential (see Open
// Question resolution #1 — this replaces the teacher's stateless JWT).
// Expiry slides forward by TokenLifetime on every successful
// verify_token call.
type AuthToken struct {
	ID     string    `json:"id" db:"id"`
	Email  string    `json:"email" db:"email"`
	Expiry time.Time `json:"expiry" db:"expiry"`
}

// TokenLifetime is the sliding window both verify_credentials and
// verify_token extend the token's expiry by (spec §3's "default 90 days").
const TokenLifetime = 90 * 24 * time.Hour

// Expired reports whether the token's expiry has passed as of now.
func (t AuthToken) Expired(now time.Time) bool {
	return !t.Expiry.After(now)
}
