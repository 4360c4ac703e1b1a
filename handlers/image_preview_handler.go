package handlers

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/camden-git/rostertagger/media"
	"github.com/camden-git/rostertagger/repository"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPreviewSize = 512
	maxPreviewSize     = 2048
)

type ImagePreviewHandler struct {
	Images repository.ImageRepositoryInterface
}

// ServePreview streams an image downscaled to fit ?size= (default 512px) as JPEG.
// Videos are served as-is.
func (iph *ImagePreviewHandler) ServePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "image_id"))
	if !ok {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid image ID")
		return
	}
	size := defaultPreviewSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPreviewSize {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid preview size")
			return
		}
		size = n
	}

	img, err := iph.Images.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Image not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching image %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to retrieve image")
		return
	}
	if _, err := os.Stat(img.Filepath); err != nil {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Image file is missing on disk")
		return
	}

	if !media.IsRasterImage(img.Filename) {
		http.ServeFile(w, r, img.Filepath)
		return
	}

	src, err := imaging.Open(img.Filepath, imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("Error decoding image %s: %v", img.Filepath, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to read image")
		return
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(src, size, size, imaging.Lanczos), imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		log.Printf("Error encoding preview for %s: %v", img.Filepath, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "Failed to encode image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing preview for %s: %v", img.Filepath, err)
	}
}
