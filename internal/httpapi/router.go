package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/adajed/searchview/internal/store"
)

// StatsSource reports store statistics.
type StatsSource interface {
	Stats(ctx context.Context) (store.Stats, error)
}

// Config wires the router's collaborators. Only Reader is required.
type Config struct {
	Reader   store.ReadStore
	Stats    StatsSource
	Cache    *store.FrameCache
	Notation func(position, move string) string
	Line     func(position string, moves []string) []string
	Opening  func(position string) string
}

// Handler serves the read-only tree API.
type Handler struct {
	r        store.ReadStore
	stats    StatsSource
	cache    *store.FrameCache
	notation func(position, move string) string
	line     func(position string, moves []string) []string
	opening  func(position string) string
	log      zerolog.Logger
}

// NewRouter creates the HTTP handler for a stored search tree.
func NewRouter(log zerolog.Logger, cfg Config) http.Handler {
	h := &Handler{
		r:        cfg.Reader,
		stats:    cfg.Stats,
		cache:    cfg.Cache,
		notation: cfg.Notation,
		line:     cfg.Line,
		opening:  cfg.Opening,
		log:      log,
	}
	if h.notation == nil {
		h.notation = func(_, move string) string { return move }
	}
	if h.line == nil {
		h.line = func(_ string, moves []string) []string { return moves }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /readyz", h.health)
	mux.HandleFunc("GET /v1/root", h.root)
	mux.HandleFunc("GET /v1/frames/{id}", h.frame)
	mux.HandleFunc("GET /v1/frames/{id}/children", h.children)
	mux.HandleFunc("GET /v1/stats", h.statsHandler)

	return CORS(RequestID(AccessLog(log, mux)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	id, err := h.r.GetRootID(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	kids, err := h.r.GetChildren(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RootResponse{ID: id, Searches: len(kids)})
}

func (h *Handler) frame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, err := h.r.GetFrame(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toFrameResponse(f))
}

func (h *Handler) children(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	parent, err := h.r.GetFrame(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ids, err := h.r.GetChildren(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := ChildrenResponse{Parent: id, Children: make([]ChildResponse, 0, len(ids))}
	for _, cid := range ids {
		child, err := h.r.GetFrame(ctx, cid)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp.Children = append(resp.Children, h.toChildResponse(parent, child))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) statsHandler(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{}
	if h.stats != nil {
		st, err := h.stats.Stats(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		out["store"] = st
	}
	if h.cache != nil {
		hits, misses, size, capacity := h.cache.Stats()
		out["cache"] = map[string]any{
			"hits":     hits,
			"misses":   misses,
			"size":     size,
			"capacity": capacity,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid frame id")
		return 0, false
	}
	return id, true
}

// fail maps a store error to a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Msg("store query")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
