package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/camden-git/rostertagger/workers"
	"github.com/go-chi/chi/v5"
)

type BatchHandler struct {
	Jobs         *workers.TagJobManager
	DefaultLimit int
}

// StartBatch launches a background tagging batch over the given ids, or over
// every untagged image when none are given.
func (bh *BatchHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	var scope workers.BatchScope
	if err := decodeJSON(r, &scope); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}
	if scope.Limit <= 0 {
		scope.Limit = bh.DefaultLimit
	}

	id, err := bh.Jobs.Start(scope)
	if err != nil {
		if errors.Is(err, workers.ErrBatchRunning) {
			WriteAPIError(w, http.StatusConflict, CodeConflict, err.Error())
			return
		}
		log.Printf("Error starting tagging batch: %v", err)
		WriteAPIError(w, http.StatusServiceUnavailable, CodeInternalError, "Failed to start tagging batch")
		return
	}
	w.Header().Set("Location", "/api/tagging/batches/"+id)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (bh *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	snap, ok := bh.Jobs.Get(chi.URLParam(r, "batch_id"))
	if !ok {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Batch not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
