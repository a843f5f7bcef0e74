package model

import "time"

// Role names stored in the JWT "role" claim.  OWNER manages clubs,
// courts, hours and slot generation; CUSTOMER may create and cancel
// reservations through the public flow.
const (
	RoleOwner    = "OWNER"
	RoleCustomer = "CUSTOMER"
)

// User is an application account as stored in the `users` table.
// The booking core trusts a pre-validated identity; users exist only
// to carry the authenticated role for write operations.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken is an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
