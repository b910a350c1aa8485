// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/okian/duello/internal/domain/model"
)

// ItemDependencies defines the interface for item pool management.
type ItemDependencies interface {
	AddItem(ctx context.Context, name string) (model.Item, error)
	RemoveItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (model.Item, error)
}

// ItemsHandler handles item pool requests.
type ItemsHandler struct {
	deps ItemDependencies
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps ItemDependencies) *ItemsHandler {
	return &ItemsHandler{deps: deps}
}

// HandleItems handles POST /items requests.
func (h *ItemsHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_item"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req itemRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	item, err := h.deps.AddItem(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// HandleItemByID handles GET and DELETE /items/{id} requests.
func (h *ItemsHandler) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.item_by_id"
	// Extract path parameter after /items/
	id := strings.TrimPrefix(r.URL.Path, "/items/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := h.deps.GetItem(r.Context(), id)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item))

	case http.MethodDelete:
		if err := h.deps.RemoveItem(r.Context(), id); err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}
