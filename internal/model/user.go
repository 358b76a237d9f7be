package model

import "time"

// RoleName is the closed set of roles used by the staff console and
// the ledger's authorization checks.  Roles are stored verbatim in the
// JWT "role" claim.
type RoleName string

const (
	RoleUser        RoleName = "user"         // regular customer
	RoleAdmin       RoleName = "admin"        // front-desk staff
	RoleSeniorAdmin RoleName = "senior_admin" // shift lead
	RoleOwner       RoleName = "owner"        // space owner
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	switch RoleName(s) {
	case RoleUser, RoleAdmin, RoleSeniorAdmin, RoleOwner:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users`
// table.  Handlers define separate response types with JSON tags; this
// struct is used by the repository layer only.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – closed role name (user, admin, senior_admin, owner).
//  FullName     – display name for the staff console.
//  Phone        – contact phone (optional, empty allowed).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         RoleName  // users.role
	FullName     string    // users.full_name
	Phone        string    // users.phone
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its SHA-256
// hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
