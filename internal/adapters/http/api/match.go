// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/duello/internal/domain/types"
)

// MatchDependencies defines the interface for pair selection.
type MatchDependencies interface {
	NextMatch(ctx context.Context) (types.Match, error)
}

// MatchHandler handles next-pair requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleGetMatch handles GET /match requests.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	match, err := h.deps.NextMatch(r.Context())
	if err != nil {
		if isPoolTooSmall(err) {
			writeError(w, http.StatusConflict, "not_enough_items", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, match)
}
