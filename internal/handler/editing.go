package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/editor"
	"docvault/internal/httputil"
)

// EditingHandler exposes the server-side editing sessions
type EditingHandler struct {
	editingService docsysSvc.EditingService
	logger         *slog.Logger
}

// NewEditingHandler creates a new editing handler
func NewEditingHandler(editingService docsysSvc.EditingService, logger *slog.Logger) *EditingHandler {
	return &EditingHandler{
		editingService: editingService,
		logger:         logger,
	}
}

// GetContent returns the node's current structural document
// GET /api/nodes/{id}/content
func (h *EditingHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	doc, err := h.editingService.Content(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// PutContent replaces the node's document and schedules a debounced save.
// PUT /api/nodes/{id}/content
// Returns 202: the edit is applied in memory, persistence follows
func (h *EditingHandler) PutContent(w http.ResponseWriter, r *http.Request) {
	var doc editor.Node
	if err := httputil.ParseJSON(w, r, &doc); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.editingService.ApplyContent(r.Context(), r.PathValue("id"), doc)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, status)
}

// Flush saves the node's pending edits immediately
// POST /api/nodes/{id}/flush
func (h *EditingHandler) Flush(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	status, err := h.editingService.Flush(r.Context(), id)
	if err != nil {
		h.logger.Warn("flush failed", "node_id", id, "error", err)
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, status)
}

// CloseSession disposes the node's session.
// DELETE /api/nodes/{id}/session?flush=true|false (default true)
func (h *EditingHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	flush := httputil.QueryBool(r, "flush", true)

	if err := h.editingService.Close(r.Context(), r.PathValue("id"), flush); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatus reports the node's session state
// GET /api/nodes/{id}/status
func (h *EditingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.editingService.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, status)
}

// GetMarkdown renders the node's current document as markdown.
// GET /api/nodes/{id}/markdown
// Responds with text/markdown when the client asks for it, JSON otherwise
func (h *EditingHandler) GetMarkdown(w http.ResponseWriter, r *http.Request) {
	export, err := h.editingService.Markdown(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(export.Markdown))
		return
	}
	httputil.RespondJSON(w, http.StatusOK, export)
}
