package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/linkstash/linkstash/models"
)

type folderRequest struct {
	Name   string   `json:"name"`
	Color  string   `json:"color"`
	Icon   string   `json:"icon"`
	TagIDs []string `json:"tag_ids"`
}

// handleListFolders returns the caller's folders with their tag filters.
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.store.ListFolders(r.Context(), currentUserID(r))
	if err != nil {
		slog.Error("failed to list folders", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, folders)
}

// handleCreateFolder creates a folder and attaches its tag filter.
func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondValidationError(w, "name", "name is required")
		return
	}

	folder := &models.Folder{
		ID:        uuid.New().String(),
		UserID:    currentUserID(r),
		Name:      req.Name,
		Color:     req.Color,
		Icon:      req.Icon,
		CreatedAt: time.Now().UTC(),
		Tags:      []models.Tag{},
	}

	if err := s.store.CreateFolder(r.Context(), folder); err != nil {
		slog.Error("failed to create folder", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if len(req.TagIDs) > 0 {
		if err := s.store.ReplaceFolderTags(r.Context(), folder.ID, req.TagIDs); err != nil {
			slog.Error("failed to attach folder tags", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	created, err := s.store.GetFolderByID(r.Context(), folder.ID)
	if err != nil || created == nil {
		slog.Error("failed to reload folder", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// handleUpdateFolder updates folder attributes and replaces its tag filter.
// An absent or empty tag_ids clears the filter.
func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.ownedFolder(w, r)
	if !ok {
		return
	}

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondValidationError(w, "name", "name is required")
		return
	}

	folder.Name = req.Name
	folder.Color = req.Color
	folder.Icon = req.Icon

	if err := s.store.UpdateFolder(r.Context(), folder); err != nil {
		slog.Error("failed to update folder", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.store.ReplaceFolderTags(r.Context(), folder.ID, req.TagIDs); err != nil {
		slog.Error("failed to sync folder tags", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	updated, err := s.store.GetFolderByID(r.Context(), folder.ID)
	if err != nil || updated == nil {
		slog.Error("failed to reload folder", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteFolder deletes a folder. Links and tags are untouched.
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.ownedFolder(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteFolder(r.Context(), folder.ID); err != nil {
		slog.Error("failed to delete folder", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "folder deleted"})
}

// handleFolderLinks returns the caller's links matching any of the folder's
// tags. A folder with no tags matches nothing.
func (s *Server) handleFolderLinks(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.ownedFolder(w, r)
	if !ok {
		return
	}

	tagIDs := make([]string, 0, len(folder.Tags))
	for _, tag := range folder.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}

	links, err := s.store.ListLinksByTagIDs(r.Context(), currentUserID(r), tagIDs)
	if err != nil {
		slog.Error("failed to list folder links", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// ownedFolder loads the folder from the id route param and enforces
// ownership, writing the error response itself on failure.
func (s *Server) ownedFolder(w http.ResponseWriter, r *http.Request) (*models.Folder, bool) {
	folder, err := s.store.GetFolderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to get folder", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if folder == nil {
		respondError(w, http.StatusNotFound, "folder not found")
		return nil, false
	}
	if folder.UserID != currentUserID(r) {
		respondError(w, http.StatusForbidden, "not authorized")
		return nil, false
	}
	return folder, true
}
