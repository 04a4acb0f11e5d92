package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/linkstash/linkstash/models"
)

const (
	searchLinkLimit   = 10
	searchFolderLimit = 5
)

// handleSearch runs a substring search over the caller's links and folders.
// A blank query returns empty result sets rather than everything.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	result := models.SearchResult{
		Links:   []*models.Link{},
		Folders: []*models.Folder{},
	}

	if query == "" {
		respondJSON(w, http.StatusOK, result)
		return
	}

	userID := currentUserID(r)

	links, err := s.store.SearchLinks(r.Context(), userID, query, searchLinkLimit)
	if err != nil {
		slog.Error("failed to search links", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	folders, err := s.store.SearchFolders(r.Context(), userID, query, searchFolderLimit)
	if err != nil {
		slog.Error("failed to search folders", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if links != nil {
		result.Links = links
	}
	if folders != nil {
		result.Folders = folders
	}
	respondJSON(w, http.StatusOK, result)
}
