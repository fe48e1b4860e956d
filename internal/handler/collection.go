package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
)

// CollectionHandler handles collection HTTP requests
type CollectionHandler struct {
	collectionService docsysSvc.CollectionService
	logger            *slog.Logger
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collectionService docsysSvc.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		logger:            logger,
	}
}

// GetLatest returns the most recently updated collection with its nodes.
// GET /api/collections/latest
// Responds with JSON null when no collection exists
func (h *CollectionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	collection, err := h.collectionService.LatestCollection(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	if collection == nil {
		httputil.RespondJSON(w, http.StatusOK, nil)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, collection)
}

// GetTree returns the ordered node forest of a collection
// GET /api/collections/{id}/tree
func (h *CollectionHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	collectionID := r.PathValue("id")

	tree, err := h.collectionService.GetTree(r.Context(), collectionID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}
