package handlers

import (
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/camden-git/rostertagger/media"
	"github.com/camden-git/rostertagger/services"
)

type ImportHandler struct {
	Importer    *services.Importer
	DefaultRoot string
}

// ImportFolder scans a folder (the configured root when none is given) and imports it.
func (h *ImportHandler) ImportFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Root string `json:"root"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	root := strings.TrimSpace(req.Root)
	if root == "" {
		root = h.DefaultRoot
	}
	if root == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing required field: root")
		return
	}

	report, err := h.Importer.ImportFolder(r.Context(), root)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, media.ErrRootNotDirectory):
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidRoot, err.Error())
		default:
			log.Printf("Error importing folder %s: %v", root, err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Import failed; the summary covers committed files only")
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}
