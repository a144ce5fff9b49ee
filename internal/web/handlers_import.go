package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/materials/internal/core"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to a temp file.
const multipartMemory = 32 << 20

var errNoFile = errors.New("no file provided")

// ImportResponse is the JSON body of POST /api/materials/import.
type ImportResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Count   *int                `json:"count,omitempty"`
	JobID   string              `json:"job_id,omitempty"`
	Summary *core.ImportSummary `json:"summary,omitempty"`
}

// handleImport accepts a multipart upload in the "file" field. Small files
// are imported before responding; larger ones are queued and answered
// with 202 and a job ID.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope so an oversize file is
	// reported by the service with its own message.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, core.ErrFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	res, err := s.service.Import(r.Context(), header.Filename, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resp := ImportResponse{
		Status:  res.Status,
		Message: res.Message,
		JobID:   res.JobID,
	}
	status := http.StatusAccepted
	if res.Mode == core.ModeImmediate {
		count := res.Count
		resp.Count = &count
		resp.Summary = res.Summary
		status = http.StatusOK
	}
	writeJSON(w, r, status, resp)
}

// handleTemplate downloads a header-only file with the import columns.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format, err := s.service.ExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="materials_template%s"`, format.Ext()))
	if err := s.service.WriteTemplate(w, format); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
	}
}
