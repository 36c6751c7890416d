// Package settings holds the board-wide texts and board list that sessions
// read while running. A published Settings value is never mutated; reloads
// swap in a new value through a Holder.
package settings

import (
	"strings"
	"sync/atomic"
)

// Board is a named category of threads.
type Board struct {
	// Name is the display name, e.g. "Technology".
	Name string
	// Description is shown in the board listing.
	Description string
}

// Key returns the lowercase name used for storage and prompts.
func (b Board) Key() string {
	return strings.ToLower(b.Name)
}

// Settings are the texts and boards of one BBS.
type Settings struct {
	Name    string
	MOTD    string
	Rules   string
	Banned  string
	Quit    string
	Version string
	Boards  []Board
}

// FindBoard returns the board whose name matches name case-insensitively.
func (s *Settings) FindBoard(name string) (Board, bool) {
	for _, b := range s.Boards {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return Board{}, false
}

// Holder publishes Settings to concurrent readers.
type Holder struct {
	v atomic.Pointer[Settings]
}

// NewHolder returns a Holder publishing s.
func NewHolder(s *Settings) *Holder {
	h := &Holder{}
	h.Store(s)
	return h
}

// Load returns the current settings snapshot.
func (h *Holder) Load() *Settings {
	return h.v.Load()
}

// Store publishes s. The caller must not modify s afterwards.
func (h *Holder) Store(s *Settings) {
	h.v.Store(s)
}
