package model

import "time"

// User represents an application account as stored in the `users` table.
// Role is one of USER, ORGANIZER or ADMIN; organizer accounts additionally
// own a row in the `organizers` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – account role (USER, ORGANIZER, ADMIN).
//  FirstName    – given name.
//  LastName     – family name (may be empty).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Organizer links an ORGANIZER user to the company it sells tickets for.
// Events reference organizers.id, not users.id.
type Organizer struct {
	ID          uint64    // organizers.id
	UserID      uint64    // organizers.user_id
	CompanyName string    // organizers.company_name
	CreatedAt   time.Time // organizers.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the issued token is persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
