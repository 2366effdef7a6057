package web

import (
	"errors"
	"net/http"

	"github.com/conorfennell/mindzap/internal/gitsource"
	"github.com/conorfennell/mindzap/internal/importer"
	"github.com/conorfennell/mindzap/internal/storage"
)

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.ListSources(r.Context(), session(r).UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if sources == nil {
			sources = []storage.Source{}
		}
		writeJSON(w, http.StatusOK, sources)
	}
}

type importRequest struct {
	Path  string `json:"path" validate:"required"`
	Prune bool   `json:"prune"`
}

// handleImportSource adds a git deck source and imports it. The request waits
// for the import to finish. Local directories can only be imported from the
// command line.
func (s *Server) handleImportSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if !gitsource.IsGitURL(req.Path) {
			s.writeError(w, r, badRequest("Only git URLs can be imported over HTTP."))
			return
		}
		report, err := s.importer.Run(r.Context(), session(r).UserID, req.Path, req.Prune)
		if errors.Is(err, importer.ErrUnavailable) {
			s.logger.Warn("deck source unavailable",
				"request_id", requestID(r.Context()),
				"path", req.Path,
				"error", err,
			)
			s.writeError(w, r, badRequest("Could not fetch %s.", req.Path))
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// handleSync re-imports every source of the caller.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prune := r.URL.Query().Get("prune") == "true"
		reports, err := s.importer.RunAll(r.Context(), session(r).UserID, prune)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}
