// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/okian/duello/internal/domain/model"
)

// TransferDependencies defines the interface for pool snapshots.
type TransferDependencies interface {
	Export(ctx context.Context) []model.Item
	Import(ctx context.Context, items []model.Item) error
}

// TransferHandler handles pool export and import.
type TransferHandler struct {
	deps TransferDependencies
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(deps TransferDependencies) *TransferHandler {
	return &TransferHandler{deps: deps}
}

// HandleExport handles GET /export requests. The response is a
// point-in-time snapshot of every pool item including rating state.
func (h *TransferHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	items := h.deps.Export(r.Context())
	out := make([]itemResponse, len(items))
	for i, item := range items {
		out[i] = toItemResponse(item)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleImport handles POST /import requests. The snapshot replaces
// the whole pool; a single invalid item rejects the import.
func (h *TransferHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_import"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var snapshot []itemResponse
	if err := gojson.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	items := make([]model.Item, len(snapshot))
	for i, ir := range snapshot {
		item, err := fromItemResponse(ir)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		items[i] = item
	}

	if err := h.deps.Import(r.Context(), items); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(items)})
}
