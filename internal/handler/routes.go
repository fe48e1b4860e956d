package handler

import "net/http"

// Handlers groups every HTTP handler of the server
type Handlers struct {
	Health     *HealthHandler
	Nodes      *NodeHandler
	Editing    *EditingHandler
	Collection *CollectionHandler
	Import     *ImportHandler
}

// Register mounts all routes on mux (Go 1.22+ enhanced patterns)
func (h *Handlers) Register(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Node routes
	mux.HandleFunc("GET /api/nodes/{id}", h.Nodes.GetNode)
	mux.HandleFunc("POST /api/nodes/{id}", h.Nodes.CreateNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", h.Nodes.UpdateNode)
	mux.HandleFunc("PATCH /api/nodes/{id}/snapshot", h.Nodes.SaveSnapshot)

	// Editing session routes
	mux.HandleFunc("GET /api/nodes/{id}/content", h.Editing.GetContent)
	mux.HandleFunc("PUT /api/nodes/{id}/content", h.Editing.PutContent)
	mux.HandleFunc("POST /api/nodes/{id}/flush", h.Editing.Flush)
	mux.HandleFunc("DELETE /api/nodes/{id}/session", h.Editing.CloseSession)
	mux.HandleFunc("GET /api/nodes/{id}/status", h.Editing.GetStatus)
	mux.HandleFunc("GET /api/nodes/{id}/markdown", h.Editing.GetMarkdown)

	// Collection routes
	mux.HandleFunc("GET /api/collections/latest", h.Collection.GetLatest)
	mux.HandleFunc("GET /api/collections/{id}/tree", h.Collection.GetTree)
	mux.HandleFunc("POST /api/collections/import", h.Import.Import)
}
