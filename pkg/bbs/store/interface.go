// Package store provides the BBS persistence layer.
//
// The store owns the four durable collections of the board (users, posts,
// bans and private messages) and is the only component allowed to mutate
// them. One store instance is shared by every session.
//
// Two backends are supported:
//   - SQLite (single-node, default), serialized through one connection
//   - PostgreSQL, through a bounded connection pool
package store

import (
	"context"
	"time"

	"github.com/marmos91/openbbs/pkg/bbs/models"
)

// UserStore manages accounts and authentication.
type UserStore interface {
	// CreateUser registers a new account and returns its role.
	// The role is operator if the name is on the operator allow-list.
	// Returns models.ErrDuplicateUser if the name is taken.
	CreateUser(ctx context.Context, name, password string) (models.Role, error)

	// Login verifies credentials, bumps last-login and returns the role and
	// the last-login value from before this login. A member on the operator
	// allow-list is promoted as a side effect.
	// Returns models.ErrInvalidCredentials on an unknown user or bad password.
	Login(ctx context.Context, name, password string) (models.Role, time.Time, error)

	// GetUser returns a user by name.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, name string) (*models.User, error)

	// ListUsers returns all users ordered by name.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int64, error)

	// SetRole overwrites a user's role. It is a no-op if the user is absent.
	SetRole(ctx context.Context, name string, role models.Role) error
}

// BanStore manages bans.
type BanStore interface {
	// CheckBanned reports whether the name or the IP matches any ban.
	CheckBanned(ctx context.Context, name, ip string) (reason string, banned bool, err error)

	// Ban inserts a ban. At least one of name and ip must be set.
	Ban(ctx context.Context, reason string, name, ip *string) error

	// Unban removes every ban matching the name or the IP and returns how
	// many were removed.
	Unban(ctx context.Context, name, ip *string) (int64, error)

	// ListBans returns all bans ordered by id.
	ListBans(ctx context.Context) ([]*models.Ban, error)
}

// PostStore manages boards, threads and posts.
type PostStore interface {
	// CreatePost stores a post and returns its id. The id and creation time
	// are assigned by the store. A reply to a reply is attached to the root.
	// Returns models.ErrPostNotFound if the parent doesn't exist.
	CreatePost(ctx context.Context, post *models.Post) (uint, error)

	// DeletePost removes a post. It is a no-op if the post is absent.
	DeletePost(ctx context.Context, id uint) error

	// CountPosts counts posts created strictly after since. The zero time
	// counts every post.
	CountPosts(ctx context.Context, since time.Time) (int64, error)

	// ListThreadRoots returns the roots of a board, newest first.
	ListThreadRoots(ctx context.Context, board string) ([]models.Post, error)

	// ListThread returns a root followed by its replies, oldest first.
	// The result is empty if rootID is not a thread root.
	ListThread(ctx context.Context, rootID uint) ([]models.Post, error)
}

// MessageStore manages private messages.
type MessageStore interface {
	// SendMessage delivers a message. It returns false without writing
	// anything if the receiver doesn't exist.
	SendMessage(ctx context.Context, sender, receiver, body string) (bool, error)

	// CountUnreadMessages counts unread messages addressed to receiver.
	CountUnreadMessages(ctx context.Context, receiver string) (int64, error)

	// FetchInbox returns the receiver's messages newest first and marks all
	// of them read. Returned rows carry the read flag from before the fetch.
	FetchInbox(ctx context.Context, receiver string) ([]models.PrivateMessage, error)

	// PruneMessages deletes read messages sent at or before olderThan.
	PruneMessages(ctx context.Context, olderThan time.Time) (int64, error)
}

// Store is the full persistence interface shared by all sessions.
//
// Thread Safety: Implementations must be safe for concurrent use from multiple
// goroutines. Multi-statement operations run in a single transaction.
type Store interface {
	UserStore
	BanStore
	PostStore
	MessageStore

	// SetOperators replaces the operator allow-list.
	SetOperators(names []string)

	// Healthcheck verifies the database is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases the database. It is safe to call more than once.
	Close() error
}
