package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Role represents the privilege level of a BBS identity.
type Role string

const (
	// RoleGuest is the anonymous identity. Guests can read and post but have
	// no inbox.
	RoleGuest Role = "guest"
	// RoleMember is a registered user.
	RoleMember Role = "member"
	// RoleOperator is a registered user with moderation privileges.
	RoleOperator Role = "operator"
)

// IsValid checks if the role is a known Role.
func (r Role) IsValid() bool {
	return r == RoleGuest || r == RoleMember || r == RoleOperator
}

// Persistable reports whether the role can be stored on a user record.
// Guests only exist for the lifetime of a session.
func (r Role) Persistable() bool {
	return r == RoleMember || r == RoleOperator
}

// AnonymousName is the identity given to guests.
const AnonymousName = "Anonymous"

// User is a registered BBS account.
//
// The password is never stored. PasswordHash holds the hex-encoded PBKDF2
// digest, Salt the hex-encoded per-user salt and Iterations the round count
// it was derived with.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Role         Role      `gorm:"not null;default:member;size:20" json:"role"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Salt         string    `gorm:"not null" json:"-"`
	Iterations   int       `gorm:"not null;default:0" json:"-"`
	LastLogin    time.Time `gorm:"not null" json:"last_login"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// IsOperator reports whether the user holds moderation privileges.
func (u *User) IsOperator() bool {
	return u.Role == RoleOperator
}

// NormalizeUsername trims and case-folds a username so that lookups are
// case-insensitive across every backend.
func NormalizeUsername(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
