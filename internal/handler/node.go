package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"docvault/internal/domain"
	"docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
	"docvault/internal/snapshot"
)

// NodeHandler handles node HTTP requests
type NodeHandler struct {
	nodeService docsysSvc.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService docsysSvc.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// NodeResponse is a node with its snapshot in text form (null when absent)
type NodeResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Kind         docsystem.NodeKind `json:"kind"`
	ParentID     *string            `json:"parentId"`
	CollectionID string             `json:"collectionId"`
	Metadata     docsystem.Metadata `json:"metadata"`
	Snapshot     *string            `json:"snapshot"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func newNodeResponse(node *docsystem.Node) *NodeResponse {
	return &NodeResponse{
		ID:           node.ID,
		Name:         node.Name,
		Kind:         node.Kind,
		ParentID:     node.ParentID,
		CollectionID: node.CollectionID,
		Metadata:     node.Metadata,
		Snapshot:     snapshot.EncodeOptional(node.Snapshot),
		CreatedAt:    node.CreatedAt,
		UpdatedAt:    node.UpdatedAt,
	}
}

// CreateNodeRequest is the JSON body of a node creation
type CreateNodeRequest struct {
	Name           string             `json:"name"`
	Kind           docsystem.NodeKind `json:"kind"`
	ParentID       *string            `json:"parentId,omitempty"`
	CollectionID   *string            `json:"collectionId,omitempty"`
	CollectionName *string            `json:"collectionName,omitempty"`
	Snapshot       *string            `json:"snapshot,omitempty"`
	Metadata       docsystem.Metadata `json:"metadata,omitempty"`
}

// UpdateNodeRequest renames a node
type UpdateNodeRequest struct {
	Name string `json:"name"`
}

// SaveSnapshotRequest carries a text-form snapshot
type SaveSnapshotRequest struct {
	Snapshot string `json:"snapshot"`
}

// GetNode retrieves a node with its snapshot
// GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	node, err := h.nodeService.LoadNode(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newNodeResponse(node))
}

// CreateNode creates a node under the ID given in the path.
// POST /api/nodes/{id}
// Returns 201 if created, 409 with the existing node if the ID is taken
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var snap []byte
	if req.Snapshot != nil {
		decoded, err := snapshot.Decode(*req.Snapshot)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		snap = decoded
	}

	node, err := h.nodeService.CreateNode(r.Context(), &docsysSvc.CreateNodeRequest{
		ID:             id,
		Name:           req.Name,
		Kind:           req.Kind,
		ParentID:       req.ParentID,
		CollectionID:   req.CollectionID,
		CollectionName: req.CollectionName,
		Snapshot:       snap,
		Metadata:       req.Metadata,
	})
	if err != nil {
		HandleCreateConflict(w, err, func(existingID string) (*NodeResponse, error) {
			existing, err := h.nodeService.LoadNode(r.Context(), existingID)
			if err != nil {
				return nil, err
			}
			return newNodeResponse(existing), nil
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, newNodeResponse(node))
}

// UpdateNode renames a node
// PATCH /api/nodes/{id}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.nodeService.UpdateTitle(r.Context(), id, req.Name); err != nil {
		handleError(w, err)
		return
	}

	node, err := h.nodeService.LoadNode(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newNodeResponse(node))
}

// SaveSnapshot replaces a file node's snapshot
// PATCH /api/nodes/{id}/snapshot
func (h *NodeHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SaveSnapshotRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := snapshot.Decode(req.Snapshot)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.nodeService.SaveSnapshot(r.Context(), id, data); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			h.logger.Error("failed to save snapshot", "node_id", id, "error", err)
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"nodeId":  id,
	})
}
