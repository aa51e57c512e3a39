package model

import "time"

// RoleName is the closed set of role names seeded into the roles table.
type RoleName string

const (
    RoleAdmin RoleName = "ADMIN"
    RoleUser  RoleName = "USER"
)

// Valid reports whether n is one of the seeded roles.
func (n RoleName) Valid() bool {
    return n == RoleAdmin || n == RoleUser
}

// Role represents a row in the `roles` table.
type Role struct {
    ID   uint8    // roles.id
    Name RoleName // roles.name
}

// IsAdmin is the single predicate for administrative privileges.
func (r Role) IsAdmin() bool { return r.Name == RoleAdmin }

// Account mirrors a row of the `users` table joined with its role.
// Nullable columns are represented by their zero value: an empty
// PasswordHash means the account only signs in through a federated
// provider, and a nil BlockedUntil on a blocked account means the block
// has no expiry.
type Account struct {
    ID                uint64
    Username          string
    Email             string
    PasswordHash      string
    FullName          string
    Phone             string
    Role              Role
    IsBlocked         bool
    BlockedUntil      *time.Time
    FederatedProvider string
    FederatedSubject  string
    CreatedAt         time.Time
    UpdatedAt         time.Time
}

// IsAdmin reports whether the account holds the ADMIN role.
func (a *Account) IsAdmin() bool { return a != nil && a.Role.IsAdmin() }

// HasPassword reports whether the account can sign in with a password.
func (a *Account) HasPassword() bool { return a.PasswordHash != "" }

// BlockExpired reports whether a block is in place but its expiry has passed,
// i.e. the account must be lazily unblocked on this access.
func (a *Account) BlockExpired(now time.Time) bool {
    return a.IsBlocked && a.BlockedUntil != nil && !now.Before(*a.BlockedUntil)
}

// PublicAccount is the projection returned to clients; it never carries the
// password hash.
type PublicAccount struct {
    ID           uint64     `json:"id"`
    Username     string     `json:"username"`
    Email        string     `json:"email"`
    FullName     string     `json:"full_name"`
    Phone        string     `json:"phone,omitempty"`
    Role         RoleName   `json:"role"`
    RoleID       uint8      `json:"role_id"`
    IsBlocked    bool       `json:"is_blocked"`
    BlockedUntil *time.Time `json:"blocked_until,omitempty"`
    Provider     string     `json:"provider,omitempty"`
    CreatedAt    time.Time  `json:"created_at"`
    UpdatedAt    time.Time  `json:"updated_at"`
}

// Public builds the client-facing projection of a.
func (a *Account) Public() PublicAccount {
    return PublicAccount{
        ID:           a.ID,
        Username:     a.Username,
        Email:        a.Email,
        FullName:     a.FullName,
        Phone:        a.Phone,
        Role:         a.Role.Name,
        RoleID:       a.Role.ID,
        IsBlocked:    a.IsBlocked,
        BlockedUntil: a.BlockedUntil,
        Provider:     a.FederatedProvider,
        CreatedAt:    a.CreatedAt,
        UpdatedAt:    a.UpdatedAt,
    }
}
