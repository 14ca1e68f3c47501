package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/sextet-lights/internal/audit"
	"github.com/nerrad567/sextet-lights/internal/sextet"
)

// buildRouter creates the chi router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/lights", s.handleLights)
		r.Get("/events", s.handleListEvents)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           s.version,
		"uptime_seconds":    int64(time.Since(s.startedAt).Seconds()),
		"websocket_clients": clients,
	})
}

// controllerStats is the JSON form of one session's counters.
type controllerStats struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Lights  int    `json:"lights"`
}

// statsResponse is the body of GET /stats.
type statsResponse struct {
	Frames       uint64            `json:"frames"`
	Transitions  uint64            `json:"transitions"`
	PartialBytes int               `json:"partial_bytes"`
	Controllers  []controllerStats `json:"controllers"`
}

// handleStats returns the bridge counters, controllers sorted by name.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.stats.Stats()

	resp := statsResponse{
		Frames:       stats.Frames,
		Transitions:  stats.Transitions,
		PartialBytes: stats.PartialBytes,
		Controllers:  make([]controllerStats, 0, len(stats.Sessions)),
	}
	for name, ss := range stats.Sessions {
		resp.Controllers = append(resp.Controllers, controllerStats{
			Name:    name,
			State:   ss.State.String(),
			Sent:    ss.Sent,
			Dropped: ss.Dropped,
			Lights:  ss.Lights,
		})
	}
	slices.SortFunc(resp.Controllers, func(a, b controllerStats) int {
		return strings.Compare(a.Name, b.Name)
	})

	writeJSON(w, http.StatusOK, resp)
}

// lightInfo is one row of the light table.
type lightInfo struct {
	Name      string `json:"name"`
	ByteIndex int    `json:"byte_index"`
	Mask      string `json:"mask"`
}

// handleLights returns the stream light table in stream order.
func (s *Server) handleLights(w http.ResponseWriter, _ *http.Request) {
	lights := make([]lightInfo, 0, sextet.LightCount())
	for p, name := range sextet.MappedLights() {
		lights = append(lights, lightInfo{
			Name:      name,
			ByteIndex: p.Index,
			Mask:      "0x" + strconv.FormatUint(uint64(p.Mask), 16),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lights":     lights,
		"count":      len(lights),
		"main_light": sextet.MainLight,
	})
}

// handleListEvents returns a page of the controller event journal.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeNotFound(w, "event journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Controller: q.Get("controller"),
		Kind:       q.Get("kind"),
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be a non-negative integer")
		return
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list controller events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

var errNegative = errors.New("negative value")

// queryInt parses an optional non-negative query parameter. Empty is zero.
func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}
