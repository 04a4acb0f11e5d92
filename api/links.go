package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	linkstash "github.com/linkstash/linkstash"
	"github.com/linkstash/linkstash/models"
)

type saveLinkRequest struct {
	URL string `json:"url"`
}

// updateLinkRequest carries partial updates: nil fields are left unchanged,
// explicit empty values clear.
type updateLinkRequest struct {
	Title   *string   `json:"title"`
	Summary *string   `json:"summary"`
	TagIDs  *[]string `json:"tag_ids"`
}

// handleListLinks returns the caller's links, newest first.
func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.store.ListLinks(r.Context(), currentUserID(r))
	if err != nil {
		slog.Error("failed to list links", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// handleSaveLink runs the enrichment pipeline for a new link.
func (s *Server) handleSaveLink(w http.ResponseWriter, r *http.Request) {
	var req saveLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondValidationError(w, "url", "url is required")
		return
	}
	if parsed, err := url.Parse(req.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		respondValidationError(w, "url", "url must be a valid http or https URL")
		return
	}

	link, err := s.saver.SaveLink(r.Context(), currentUserID(r), req.URL)
	if err != nil {
		var fetchErr *linkstash.FetchError
		if errors.As(err, &fetchErr) {
			respondError(w, http.StatusUnprocessableEntity, "could not fetch the provided URL")
			return
		}
		var validationErr *linkstash.ValidationError
		if errors.As(err, &validationErr) {
			respondValidationError(w, validationErr.Field, validationErr.Message)
			return
		}
		slog.Error("failed to save link", "url", req.URL, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// handleUpdateLink updates title/summary and optionally syncs tags.
func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	link, ok := s.ownedLink(w, r)
	if !ok {
		return
	}

	var req updateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		link.Title = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		link.Summary = strings.TrimSpace(*req.Summary)
	}

	if err := s.store.UpdateLink(r.Context(), link); err != nil {
		slog.Error("failed to update link", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if req.TagIDs != nil {
		if err := s.store.ReplaceLinkTags(r.Context(), link.ID, *req.TagIDs); err != nil {
			slog.Error("failed to sync link tags", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	updated, err := s.store.GetLinkByID(r.Context(), link.ID)
	if err != nil || updated == nil {
		slog.Error("failed to reload link", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteLink deletes the caller's link. Shared tag rows are untouched.
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	link, ok := s.ownedLink(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteLink(r.Context(), link.ID); err != nil {
		slog.Error("failed to delete link", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "link deleted"})
}

// handleLinkArchive serves the archived page HTML captured at save time.
func (s *Server) handleLinkArchive(w http.ResponseWriter, r *http.Request) {
	link, ok := s.ownedLink(w, r)
	if !ok {
		return
	}

	if s.archive == nil || link.ArchivePath == "" {
		respondError(w, http.StatusNotFound, "no archive for this link")
		return
	}

	data, err := s.archive.ReadHTML(link.ArchivePath)
	if err != nil {
		slog.Error("failed to read archived page", "link_id", link.ID, "error", err)
		respondError(w, http.StatusNotFound, "archive not available")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// ownedLink loads the link from the id route param and enforces ownership,
// writing the error response itself on failure.
func (s *Server) ownedLink(w http.ResponseWriter, r *http.Request) (*models.Link, bool) {
	link, err := s.store.GetLinkByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to get link", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if link == nil {
		respondError(w, http.StatusNotFound, "link not found")
		return nil, false
	}
	if link.UserID != currentUserID(r) {
		respondError(w, http.StatusForbidden, "not authorized")
		return nil, false
	}
	return link, true
}
