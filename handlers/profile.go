package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	Store *repository.Store
}

func (ph *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := ph.Store.Profiles.ListVisibleWithCounts()
	if err != nil {
		log.Printf("Error listing profiles: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to retrieve profiles")
		return
	}
	if profiles == nil {
		profiles = []repository.ProfileSummary{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// ListProfileImages lists a profile's images; ?sort= takes one of the database.Sort* orders.
func (ph *ProfileHandler) ListProfileImages(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	order := r.URL.Query().Get("sort")
	if order == "" {
		order = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(order) {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid sort order")
		return
	}
	if _, err := ph.Store.Profiles.GetByUsername(username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Profile not found")
		} else {
			log.Printf("Error getting profile %s: %v", username, err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to retrieve profile")
		}
		return
	}

	images, err := ph.Store.Images.ListByUsernameSorted(username, order)
	if err != nil {
		log.Printf("Error listing images for %s: %v", username, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to retrieve images")
		return
	}
	if images == nil {
		images = []models.Image{}
	}
	writeJSON(w, http.StatusOK, images)
}

// RenameProfile renames a profile, merging it into the target when that name already exists.
func (ph *ProfileHandler) RenameProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Username) == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required field: username")
		return
	}

	if err := ph.Store.Profiles.Rename(username, strings.TrimSpace(req.Username)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Profile not found")
		} else {
			log.Printf("Error renaming profile %s: %v", username, err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to rename profile")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ph *ProfileHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ph.Store.Stats()
	if err != nil {
		log.Printf("Error computing stats: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
