// Package shell runs the interactive command loop of a logged-in session.
//
// A Shell owns the command table and is shared by all sessions. Per-session
// data lives in State, which only its own session touches.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/internal/telemetry"
	"github.com/marmos91/openbbs/pkg/bbs/command"
	"github.com/marmos91/openbbs/pkg/bbs/format"
	"github.com/marmos91/openbbs/pkg/bbs/login"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/settings"
)

// Store is the subset of the persistent store used by shell commands.
type Store interface {
	CreatePost(ctx context.Context, post *models.Post) (uint, error)
	DeletePost(ctx context.Context, id uint) error
	ListThreadRoots(ctx context.Context, board string) ([]models.Post, error)
	ListThread(ctx context.Context, rootID uint) ([]models.Post, error)
	SendMessage(ctx context.Context, sender, receiver, body string) (bool, error)
	FetchInbox(ctx context.Context, receiver string) ([]models.PrivateMessage, error)
	Ban(ctx context.Context, reason string, name, ip *string) error
	Unban(ctx context.Context, name, ip *string) (int64, error)
	SetRole(ctx context.Context, name string, role models.Role) error
}

// Metrics records executed commands. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordCommand(command string, duration time.Duration)
}

// Terminal is the line I/O a shell talks through.
type Terminal = login.Terminal

// State is the per-session shell state.
type State struct {
	Term     Terminal
	Identity *login.Identity
	Location Location

	// settings is the snapshot taken for the command being run.
	settings *settings.Settings
}

// Shell is the command interpreter shared by every session.
type Shell struct {
	store    Store
	settings *settings.Holder
	metrics  Metrics
	table    *command.Table[*State]
}

// New builds the command table. metrics may be nil.
func New(store Store, holder *settings.Holder, metrics Metrics) *Shell {
	s := &Shell{store: store, settings: holder, metrics: metrics}

	b := command.NewBuilder[*State]()
	b.MustAdd([]string{"help", "h"}, s.help)
	b.MustAdd([]string{"rules", "r"}, s.rules)
	b.MustAdd([]string{"info", "in"}, s.info)
	b.MustAdd([]string{"board", "b"}, s.board)
	b.MustAdd([]string{"thread", "t"}, s.thread)
	b.MustAdd([]string{"refresh", "re"}, s.refresh)
	b.MustAdd([]string{"post", "p"}, s.post)
	b.MustAdd([]string{"inbox", "i"}, membersOnly(s.inbox))
	b.MustAdd([]string{"send", "s"}, membersOnly(s.send))
	b.MustAdd([]string{"delete", "d"}, operatorsOnly(s.deletePost))
	b.MustAdd([]string{"ban", "ba"}, operatorsOnly(s.ban))
	b.MustAdd([]string{"unban", "u"}, operatorsOnly(s.unban))
	b.MustAdd([]string{"op", "o"}, operatorsOnly(s.setRole), string(models.RoleOperator))
	b.MustAdd([]string{"deop", "de"}, operatorsOnly(s.setRole), string(models.RoleMember))
	if err := b.Default(s.unknown); err != nil {
		panic(err)
	}
	s.table = b.Build()

	return s
}

// Commands returns the aliases the shell understands, quit excluded.
func (s *Shell) Commands() []string {
	return s.table.Aliases()
}

// Run loops over commands until the client quits. It returns nil on quit
// and an error on transport or store faults.
func (s *Shell) Run(ctx context.Context, term Terminal, id *login.Identity) error {
	st := &State{Term: term, Identity: id, Location: Overboard{}}

	if err := term.Send(format.Boards(s.settings.Load().Boards)); err != nil {
		return err
	}
	if err := term.Send(`Enter "[H]ELP" to see available commands.`); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		st.settings = s.settings.Load()
		line, err := term.Prompt(fmt.Sprintf("[%s@%s %s]$ ", id.Name, st.settings.Name, st.Location.Display()))
		if err != nil {
			return err
		}

		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if cmd := strings.ToLower(tokens[0]); cmd == "quit" || cmd == "q" {
			break
		}

		if err := s.dispatch(ctx, st, tokens); err != nil {
			return err
		}
	}

	return term.Send(s.settings.Load().Quit)
}

func (s *Shell) dispatch(ctx context.Context, st *State, tokens []string) error {
	name, ok := s.table.Resolve(tokens[0])
	if !ok {
		name = "unknown"
	}

	ctx, span := telemetry.StartCommandSpan(ctx, name, telemetry.Board(st.Location.Display()))
	defer span.End()

	start := time.Now()
	err := s.table.Dispatch(ctx, st, tokens)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordCommand(name, elapsed)
	}
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "command failed", logger.KeyCommand, name, logger.Err(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.DebugCtx(ctx, "command", logger.KeyCommand, name,
		logger.KeyBoard, st.Location.Display(), logger.DurationMs(elapsed))
	return nil
}

// denied is sent whenever a role lacks a privilege.
const denied = "You can't do that!"

func membersOnly(h command.Handler[*State]) command.Handler[*State] {
	return func(ctx context.Context, st *State, tokens, args []string) error {
		if st.Identity.IsGuest() {
			return st.Term.Send(denied)
		}
		return h(ctx, st, tokens, args)
	}
}

func operatorsOnly(h command.Handler[*State]) command.Handler[*State] {
	return func(ctx context.Context, st *State, tokens, args []string) error {
		if st.Identity.Role != models.RoleOperator {
			return st.Term.Send(denied)
		}
		return h(ctx, st, tokens, args)
	}
}

// argOrPrompt returns tokens[i] or, when absent, asks with label.
func argOrPrompt(st *State, tokens []string, i int, label string) (string, error) {
	if len(tokens) > i {
		return tokens[i], nil
	}
	return st.Term.Prompt(label)
}

// restOrPrompt returns tokens[i:] joined by spaces or, when absent, asks
// with label.
func restOrPrompt(st *State, tokens []string, i int, label string) (string, error) {
	if len(tokens) > i {
		return strings.Join(tokens[i:], " "), nil
	}
	return st.Term.Prompt(label)
}

// isUserError reports store errors caused by bad input rather than faults.
func isUserError(err error) bool {
	return errors.Is(err, models.ErrEmptyPost) ||
		errors.Is(err, models.ErrPostNotFound) ||
		errors.Is(err, models.ErrInvalidBan)
}
