// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
)

// JudgmentDependencies defines the interface for judgment submission.
type JudgmentDependencies interface {
	SubmitJudgment(ctx context.Context, j model.Judgment) (duplicate bool, err error)
}

// JudgmentsHandler handles judgment submissions.
type JudgmentsHandler struct {
	deps JudgmentDependencies
}

// NewJudgmentsHandler creates a new judgments handler.
func NewJudgmentsHandler(deps JudgmentDependencies) *JudgmentsHandler {
	return &JudgmentsHandler{deps: deps}
}

// HandlePostJudgment handles POST /judgments requests.
func (h *JudgmentsHandler) HandlePostJudgment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_judgment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req judgmentRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	j := model.Judgment{
		JudgmentID: req.JudgmentID,
		ItemA:      req.ItemA,
		ItemB:      req.ItemB,
		Score:      rating.Score(req.Score),
	}
	if req.TS != "" {
		// Already validated as RFC3339.
		j.TS, _ = time.Parse(time.RFC3339, req.TS)
	}

	duplicate, err := h.deps.SubmitJudgment(r.Context(), j)
	if err != nil {
		if isBackpressure(err) {
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
