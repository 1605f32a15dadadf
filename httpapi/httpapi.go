// Package httpapi exposes the read-mostly inspection surface of the running
// world: liveness, the current cycle-state snapshot, recent memories and
// memory stats, plus the reset operation.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/workflow"
)

// World is the slice of the façade the API needs. Kept as an interface so
// handlers are testable without a live model.
type World interface {
	StateSnapshot() core.CycleState
	Reset() core.CycleState
	Trigger(ctx context.Context, in workflow.CycleInput, cleanup func()) bool
	Memory() core.MemoryStore
	Namespace() string
	Identity() character.Identity
	Dropped() uint64
	InFlight() bool
}

// maxImageBytes caps screenshot uploads on the trigger endpoint.
const maxImageBytes = 8 << 20

// Options configure the API handler.
type Options struct {
	Logger logging.Logger
}

// Handler serves the inspection and control endpoints.
type Handler struct {
	world  World
	logger logging.Logger
}

// New creates the API handler for a world.
func New(world World, optFns ...func(o *Options)) *Handler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Handler{world: world, logger: opts.Logger}
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /agents/state", h.agentState)
	mux.HandleFunc("GET /agents/memory/recent", h.memoryRecent)
	mux.HandleFunc("GET /agents/memory/stats", h.memoryStats)
	mux.HandleFunc("POST /agents/reset", h.reset)
	mux.HandleFunc("POST /agents/trigger", h.trigger)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("response encode failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	id := h.world.Identity()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"service":   "tinyworld",
		"character": id.Name,
		"message":   "The world is running.",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"in_flight":      h.world.InFlight(),
		"dropped_cycles": h.world.Dropped(),
	})
}

func (h *Handler) agentState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.world.StateSnapshot())
}

func (h *Handler) memoryRecent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.world.Memory().ListRecent(h.world.Namespace(), limit)
	if err != nil {
		h.logger.Error("memory listing failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "memory listing failed")
		return
	}
	if records == nil {
		records = []core.MemoryRecord{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"namespace": h.world.Namespace(),
		"records":   records,
	})
}

func (h *Handler) memoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.world.Memory().Stats(h.world.Namespace())
	if err != nil {
		h.logger.Error("memory stats failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "memory stats failed")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	snap := h.world.Reset()
	h.logger.Info("agent state reset via api", "character_id", snap.CharacterID)
	h.writeJSON(w, http.StatusOK, snap)
}

// trigger starts one decision cycle from an external event. The request body
// may carry a screenshot (image/png or image/jpeg); x/y query parameters
// override the character's stored position for this cycle. A trigger arriving
// while a cycle is in flight is dropped, reported as a conflict.
func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	var in workflow.CycleInput

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "malformed Content-Type")
			return
		}
		mediaType = mt
	}

	switch mediaType {
	case "image/png", "image/jpeg":
		image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "image read failed")
			return
		}
		if len(image) > maxImageBytes {
			h.writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		in.Image = image
		in.ImageMIME = mediaType
	case "", "application/json":
		// no screenshot for this cycle
	default:
		h.writeError(w, http.StatusUnsupportedMediaType, "expected image/png or image/jpeg")
		return
	}

	q := r.URL.Query()
	if q.Has("x") || q.Has("y") {
		x, errX := strconv.ParseFloat(q.Get("x"), 64)
		y, errY := strconv.ParseFloat(q.Get("y"), 64)
		if errX != nil || errY != nil {
			h.writeError(w, http.StatusBadRequest, "x and y must both be numbers")
			return
		}
		in.Position = &core.Point{X: x, Y: y}
	}

	// The cycle outlives the request; it must not die with the client
	// connection.
	if !h.world.Trigger(context.WithoutCancel(r.Context()), in, nil) {
		h.writeJSON(w, http.StatusConflict, map[string]any{
			"accepted":       false,
			"reason":         "decision already in progress",
			"dropped_cycles": h.world.Dropped(),
		})
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}
