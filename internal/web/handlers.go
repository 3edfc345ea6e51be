package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/tp3s/internal/service"
	"github.com/example/tp3s/internal/storage"
)

// Handlers contains HTTP handlers for the run history API
type Handlers struct {
	svc    *service.SolveService
	logger *zap.Logger
}

// NewHandlers creates new API handlers
func NewHandlers(svc *service.SolveService, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// ListRuns handles GET /api/runs/?instance=&status=&limit=&offset=
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runs, err := h.svc.ListRuns(r.Context(), opts)
	if err != nil {
		h.writeError(w, "Failed to list runs", err)
		return
	}

	response := ListRunsResponse{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		response.Runs = append(response.Runs, convertSummary(run))
	}
	writeJSON(w, response)
}

// GetRun handles GET /api/runs/:id
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := h.svc.GetRun(r.Context(), runID)
	if err != nil {
		h.writeError(w, "Failed to get run", err)
		return
	}
	writeJSON(w, convertRun(run))
}

func (h *Handlers) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "Run not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNoStorage):
		http.Error(w, "Run history is not enabled", http.StatusServiceUnavailable)
	default:
		h.logger.Error(msg, zap.Error(err))
		http.Error(w, msg+": "+err.Error(), http.StatusInternalServerError)
	}
}

func parseListOptions(r *http.Request) (storage.ListOptions, error) {
	q := r.URL.Query()
	opts := storage.ListOptions{InstanceName: q.Get("instance")}
	for _, s := range q["status"] {
		opts.Statuses = append(opts.Statuses, storage.RunStatus(s))
	}
	var err error
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil || opts.Limit < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if opts.Offset, err = strconv.Atoi(v); err != nil || opts.Offset < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
