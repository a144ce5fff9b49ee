package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/materials/internal/config"
	"github.com/JonMunkholm/materials/internal/logging"
)

const healthTimeout = 2 * time.Second

// handleExport downloads every live material.
//
// Query parameters:
//   - fields: comma-separated column identifiers (default: EXPORT_FIELDS)
//   - format: xlsx or csv (default: EXPORT_FORMAT)
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	spec, err := s.service.ExportSpec(config.SplitList(q.Get("fields")))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	format, err := s.service.ExportFormat(q.Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	// Buffered so a failed query still gets a proper error response.
	var buf bytes.Buffer
	n, err := s.service.Export(r.Context(), &buf, spec, format)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="materials%s"`, format.Ext()))
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleJobStatus returns the status of an import job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	status, err := s.service.JobStatus(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleHealth reports database reachability and import capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, code, db := "ok", http.StatusOK, "ok"
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		status, code, db = "unavailable", http.StatusServiceUnavailable, "unreachable"
	}
	writeJSON(w, r, code, map[string]interface{}{
		"status":   status,
		"database": db,
		"imports":  s.service.Stats(),
	})
}
