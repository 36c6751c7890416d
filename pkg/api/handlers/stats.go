package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/openbbs/internal/logger"
)

// StatsStore counts BBS content.
type StatsStore interface {
	CountPosts(ctx context.Context, since time.Time) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}

// SessionCounter reports live sessions. The TCP adapter satisfies it.
type SessionCounter interface {
	GetActiveConnections() int32
}

// Stats is the body of GET /api/v1/stats.
type Stats struct {
	Posts          int64 `json:"posts"`
	Users          int64 `json:"users"`
	ActiveSessions int32 `json:"active_sessions"`
}

// StatsHandler serves aggregate counters.
type StatsHandler struct {
	store    StatsStore
	sessions SessionCounter
}

// NewStatsHandler creates a stats handler. sessions may be nil.
func NewStatsHandler(store StatsStore, sessions SessionCounter) *StatsHandler {
	return &StatsHandler{store: store, sessions: sessions}
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stats Stats
	var err error
	if stats.Posts, err = h.store.CountPosts(ctx, time.Time{}); err != nil {
		logger.Warn("stats: count posts", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse("failed to count posts"))
		return
	}
	if stats.Users, err = h.store.CountUsers(ctx); err != nil {
		logger.Warn("stats: count users", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse("failed to count users"))
		return
	}
	if h.sessions != nil {
		stats.ActiveSessions = h.sessions.GetActiveConnections()
	}

	writeJSON(w, http.StatusOK, okResponse(stats))
}
