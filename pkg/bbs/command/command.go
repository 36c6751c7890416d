// Package command routes tokenized input lines to handlers.
//
// A Table maps case-insensitive aliases to a handler plus a fixed argument
// list, with an optional default handler for unknown input. Tables are
// validated while they are built and are immutable afterwards, so one table
// can be shared by every session.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	// ErrNoAliases is returned when a command is registered without aliases.
	ErrNoAliases = errors.New("command requires at least one alias")

	// ErrInvalidAlias is returned for empty aliases or aliases containing
	// whitespace, which could never match a token.
	ErrInvalidAlias = errors.New("invalid alias")

	// ErrDuplicateAlias is returned when an alias is already registered.
	ErrDuplicateAlias = errors.New("duplicate alias")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler is nil")

	// ErrDefaultExists is returned when a second default handler is set.
	ErrDefaultExists = errors.New("default handler already set")

	// ErrEmptyCommand is returned when dispatching an empty token list.
	ErrEmptyCommand = errors.New("empty command")

	// ErrNoHandler is returned when nothing matches and no default is set.
	ErrNoHandler = errors.New("no handler for command")
)

// Handler handles one command for a session of type S.
//
// tokens is the full tokenized input line, command word included. args are
// the fixed arguments bound when the command was registered.
type Handler[S any] func(ctx context.Context, s S, tokens []string, args []string) error

type entry[S any] struct {
	name    string
	handler Handler[S]
	args    []string
}

// Builder accumulates commands for a Table.
type Builder[S any] struct {
	entries  map[string]*entry[S]
	fallback Handler[S]
}

// NewBuilder returns an empty Builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{entries: make(map[string]*entry[S])}
}

// Add registers h under every alias. The first alias names the command.
// Nothing is registered if any alias is invalid or already taken.
func (b *Builder[S]) Add(aliases []string, h Handler[S], args ...string) error {
	if len(aliases) == 0 {
		return ErrNoAliases
	}
	if h == nil {
		return ErrNilHandler
	}

	keys := make([]string, 0, len(aliases))
	seen := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		if a == "" || strings.IndexFunc(a, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidAlias, a)
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateAlias, a)
		}
		if _, dup := b.entries[key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateAlias, a)
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	e := &entry[S]{
		name:    keys[0],
		handler: h,
		args:    append([]string(nil), args...),
	}
	for _, k := range keys {
		b.entries[k] = e
	}
	return nil
}

// MustAdd is like Add but panics on error. It is meant for tables built
// once at startup.
func (b *Builder[S]) MustAdd(aliases []string, h Handler[S], args ...string) *Builder[S] {
	if err := b.Add(aliases, h, args...); err != nil {
		panic(fmt.Sprintf("command: %v", err))
	}
	return b
}

// Default sets the handler invoked for unknown commands.
func (b *Builder[S]) Default(h Handler[S]) error {
	if h == nil {
		return ErrNilHandler
	}
	if b.fallback != nil {
		return ErrDefaultExists
	}
	b.fallback = h
	return nil
}

// Build returns an immutable Table. The builder may be discarded afterwards.
func (b *Builder[S]) Build() *Table[S] {
	entries := make(map[string]*entry[S], len(b.entries))
	for k, e := range b.entries {
		entries[k] = e
	}
	return &Table[S]{entries: entries, fallback: b.fallback}
}

// Table is an immutable alias to handler mapping. It is safe for concurrent use.
type Table[S any] struct {
	entries  map[string]*entry[S]
	fallback Handler[S]
}

// Dispatch looks up tokens[0] case-insensitively and invokes its handler,
// falling back to the default handler.
func (t *Table[S]) Dispatch(ctx context.Context, s S, tokens []string) error {
	if len(tokens) == 0 {
		return ErrEmptyCommand
	}
	if e, ok := t.entries[strings.ToLower(tokens[0])]; ok {
		return e.handler(ctx, s, tokens, e.args)
	}
	if t.fallback != nil {
		return t.fallback(ctx, s, tokens, nil)
	}
	return fmt.Errorf("%w: %q", ErrNoHandler, tokens[0])
}

// Resolve returns the canonical command name for an alias.
func (t *Table[S]) Resolve(alias string) (string, bool) {
	e, ok := t.entries[strings.ToLower(alias)]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Has reports whether alias is registered.
func (t *Table[S]) Has(alias string) bool {
	_, ok := t.entries[strings.ToLower(alias)]
	return ok
}

// Aliases returns every registered alias in sorted order.
func (t *Table[S]) Aliases() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
