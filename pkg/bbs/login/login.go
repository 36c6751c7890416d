// Package login runs the pre-shell menu where a client logs in, registers
// or continues anonymously.
package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/pkg/bbs/format"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/terminal"
)

// Login outcomes reported to Metrics.
const (
	OutcomeSuccess        = "success"
	OutcomeFailure        = "failure"
	OutcomeRegistered     = "registered"
	OutcomeRegisterFailed = "register_failed"
	OutcomeAnonymous      = "anonymous"
)

// Store is the subset of the persistent store used by the login menu.
type Store interface {
	CreateUser(ctx context.Context, name, password string) (models.Role, error)
	Login(ctx context.Context, name, password string) (models.Role, time.Time, error)
	CountPosts(ctx context.Context, since time.Time) (int64, error)
	CountUnreadMessages(ctx context.Context, receiver string) (int64, error)
}

// Metrics records login attempts. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordLogin(outcome string)
}

// Identity is who a session acts as once the menu is done.
type Identity struct {
	Name string
	Role models.Role
}

// IsGuest reports whether the identity is anonymous.
func (i *Identity) IsGuest() bool {
	return i.Role == models.RoleGuest
}

// Terminal is the line I/O the menu talks through.
type Terminal interface {
	Send(msg string) error
	Sendf(format string, args ...any) error
	Prompt(label string) (string, error)
}

var _ Terminal = (*terminal.Terminal)(nil)

// Machine is the login state machine. One Machine serves every session.
type Machine struct {
	store   Store
	metrics Metrics
}

// New returns a Machine. metrics may be nil.
func New(store Store, metrics Metrics) *Machine {
	return &Machine{store: store, metrics: metrics}
}

// Run shows the menu and loops until the client is identified or quits.
// It returns (nil, nil) when the client quits, and an error on transport or
// store faults, which end the session.
func (m *Machine) Run(ctx context.Context, term Terminal) (*Identity, error) {
	if err := term.Send(format.LoginMenu); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		input, err := term.Prompt("--> ")
		if err != nil {
			return nil, err
		}

		var id *Identity
		switch strings.ToLower(input) {
		case "login", "l":
			id, err = m.login(ctx, term)
		case "register", "r":
			id, err = m.register(ctx, term)
		case "anonymous", "a":
			m.record(OutcomeAnonymous)
			id = &Identity{Name: models.AnonymousName, Role: models.RoleGuest}
			err = term.Send("Don't make trouble...")
		case "quit", "q":
			return nil, nil
		default:
			err = term.Sendf("Invalid command \"%s\".", input)
		}

		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}
}

// login returns a nil identity when the credentials are rejected.
func (m *Machine) login(ctx context.Context, term Terminal) (*Identity, error) {
	name, err := term.Prompt("USERNAME: ")
	if err != nil {
		return nil, err
	}
	password, err := term.Prompt("PASSWORD: ")
	if err != nil {
		return nil, err
	}
	name = models.NormalizeUsername(name)

	role, lastLogin, err := m.store.Login(ctx, name, password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		m.record(OutcomeFailure)
		logger.InfoCtx(ctx, "login rejected", logger.KeyUsername, name)
		return nil, term.Send("Invalid login credentials.")
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	m.record(OutcomeSuccess)

	posts, err := m.store.CountPosts(ctx, lastLogin)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	unread, err := m.store.CountUnreadMessages(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	for _, line := range []string{
		fmt.Sprintf("Successfully logged in as %s.", name),
		fmt.Sprintf("Last Login: %s.", lastLogin.Local().Format(format.LongTime)),
		fmt.Sprintf("Posts since then: %d.", posts),
		fmt.Sprintf("You have %d new messages.", unread),
	} {
		if err := term.Send(line); err != nil {
			return nil, err
		}
	}
	return &Identity{Name: name, Role: role}, nil
}

// register returns a nil identity when the account could not be created.
func (m *Machine) register(ctx context.Context, term Terminal) (*Identity, error) {
	name, err := term.Prompt("USERNAME: ")
	if err != nil {
		return nil, err
	}
	password, err := term.Prompt("PASSWORD: ")
	if err != nil {
		return nil, err
	}
	confirm, err := term.Prompt("CONFIRM PASSWORD: ")
	if err != nil {
		return nil, err
	}
	name = models.NormalizeUsername(name)

	if password != confirm {
		m.record(OutcomeRegisterFailed)
		return nil, term.Send("Passwords do not match.")
	}
	if name == "" || password == "" {
		m.record(OutcomeRegisterFailed)
		return nil, term.Send("Account already exists, or could not be made.")
	}

	role, err := m.store.CreateUser(ctx, name, password)
	if errors.Is(err, models.ErrDuplicateUser) || errors.Is(err, models.ErrInvalidUsername) {
		m.record(OutcomeRegisterFailed)
		return nil, term.Send("Account already exists, or could not be made.")
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	m.record(OutcomeRegistered)
	logger.InfoCtx(ctx, "account created", logger.KeyUsername, name, logger.KeyRole, string(role))
	if err := term.Sendf("Account successfully created: %s.", name); err != nil {
		return nil, err
	}
	return &Identity{Name: name, Role: role}, nil
}

func (m *Machine) record(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordLogin(outcome)
	}
}
