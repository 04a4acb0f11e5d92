package api

import (
	"log/slog"
	"net/http"
)

// handleListTags returns every tag, alphabetically. Tags are shared across
// users so the list is not scoped.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		slog.Error("failed to list tags", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, tags)
}
