// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/okian/duello/internal/adapters/repository"
	service "github.com/okian/duello/internal/app"
	"github.com/okian/duello/internal/domain/model"
	"github.com/okian/duello/internal/domain/rating"
	"github.com/okian/duello/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Item pool operations.
	AddItem(ctx context.Context, name string) (model.Item, error)
	RemoveItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (model.Item, error)

	// Judgment flow.
	NextMatch(ctx context.Context) (types.Match, error)
	SubmitJudgment(ctx context.Context, j model.Judgment) (duplicate bool, err error)

	// Read operations expose standings data.
	Standings(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, itemID string) (Entry, error)

	// Snapshot operations.
	Export(ctx context.Context) []model.Item
	Import(ctx context.Context, items []model.Item) error
}

// Entry mirrors the read shape returned by standings queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	itemsHandler     *ItemsHandler
	judgmentsHandler *JudgmentsHandler
	matchHandler     *MatchHandler
	standingsHandler *StandingsHandler
	rankHandler      *RankHandler
	transferHandler  *TransferHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// the standings page size.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		itemsHandler:     NewItemsHandler(deps),
		judgmentsHandler: NewJudgmentsHandler(deps),
		matchHandler:     NewMatchHandler(deps),
		standingsHandler: NewStandingsHandler(deps, maxLimit),
		rankHandler:      NewRankHandler(deps),
		transferHandler:  NewTransferHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/items", MetricsMiddleware(s.itemsHandler.HandleItems, "items"))
	mux.HandleFunc("/items/", MetricsMiddleware(s.itemsHandler.HandleItemByID, "items"))
	mux.HandleFunc("/judgments", MetricsMiddleware(s.judgmentsHandler.HandlePostJudgment, "judgments"))
	mux.HandleFunc("/match", MetricsMiddleware(s.matchHandler.HandleGetMatch, "match"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/export", MetricsMiddleware(s.transferHandler.HandleExport, "export"))
	mux.HandleFunc("/import", MetricsMiddleware(s.transferHandler.HandleImport, "import"))
}

// itemRequest mirrors the OpenAPI schema for POST /items.
type itemRequest struct {
	Name string `json:"name"`
}

// itemResponse is the wire shape of a pool item.
type itemResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
	MatchCount int     `json:"match_count"`
	CreatedAt  string  `json:"created_at"`
}

func toItemResponse(item model.Item) itemResponse {
	return itemResponse{
		ID:         item.ID,
		Name:       item.Name,
		Rating:     item.State.Rating,
		Deviation:  item.State.Deviation,
		Volatility: item.State.Volatility,
		MatchCount: item.MatchCount,
		CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromItemResponse(ir itemResponse) (model.Item, error) {
	created := time.Time{}
	if ir.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, ir.CreatedAt)
		if err != nil {
			return model.Item{}, errors.New("invalid created_at; must be RFC3339")
		}
		created = t
	}
	return model.Item{
		ID:   ir.ID,
		Name: ir.Name,
		State: rating.State{
			Rating:     ir.Rating,
			Deviation:  ir.Deviation,
			Volatility: ir.Volatility,
		},
		MatchCount: ir.MatchCount,
		CreatedAt:  created,
	}, nil
}

// judgmentRequest mirrors the OpenAPI schema for POST /judgments.
type judgmentRequest struct {
	JudgmentID string  `json:"judgment_id"`
	ItemA      string  `json:"item_a"`
	ItemB      string  `json:"item_b"`
	Score      float64 `json:"score"`
	TS         string  `json:"ts"`
}

func (j judgmentRequest) validate() error {
	switch {
	case strings.TrimSpace(j.JudgmentID) == "":
		return errors.New("missing judgment_id")
	case strings.TrimSpace(j.ItemA) == "":
		return errors.New("missing item_a")
	case strings.TrimSpace(j.ItemB) == "":
		return errors.New("missing item_b")
	case j.ItemA == j.ItemB:
		return errors.New("item_a and item_b must differ")
	}
	if !rating.Score(j.Score).Valid() {
		return errors.New("score must be 0, 0.5, or 1")
	}
	if j.TS != "" {
		if _, err := time.Parse(time.RFC3339, j.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// isBackpressure reports whether the judgment pipeline refused a
// submission for lack of queue capacity.
func isBackpressure(err error) bool {
	return errors.Is(err, service.ErrQueueFull)
}

// isPoolTooSmall reports whether pair selection failed because the
// pool holds fewer than two items.
func isPoolTooSmall(err error) bool {
	return errors.Is(err, service.ErrNotEnoughItems)
}
