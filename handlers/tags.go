package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/services"
	"github.com/camden-git/rostertagger/vision"
	"github.com/go-chi/chi/v5"
)

type TagHandler struct {
	Editor *services.TagEditor
}

func (th *TagHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	imageID, ok := parseID(chi.URLParam(r, "image_id"))
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid image ID format")
		return
	}
	tag, err := th.Editor.Get(imageID)
	if err != nil {
		writeTagError(w, imageID, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// SetTags replaces an image's tags with a manual edit; every category is required.
func (th *TagHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	imageID, ok := parseID(chi.URLParam(r, "image_id"))
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid image ID format")
		return
	}
	var raw vision.RawTags
	if err := decodeJSON(r, &raw); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	tag, err := th.Editor.SetTags(imageID, raw)
	if err != nil {
		writeTagError(w, imageID, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (th *TagHandler) AutoTag(w http.ResponseWriter, r *http.Request) {
	imageID, ok := parseID(chi.URLParam(r, "image_id"))
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid image ID format")
		return
	}
	tag, err := th.Editor.AutoTag(r.Context(), imageID)
	if err != nil {
		writeTagError(w, imageID, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (th *TagHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, vision.Vocabulary())
}

func writeTagError(w http.ResponseWriter, imageID uint, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Image or tag not found")
	case errors.Is(err, vision.ErrInvalidTags):
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidTags, err.Error())
	case errors.Is(err, vision.ErrUnsupportedMedia):
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeBadRequest, "Videos cannot be tagged")
	default:
		log.Printf("Error handling tags for image %d: %v", imageID, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to process tags")
	}
}
