package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/config"
	"docvault/internal/crdt"
	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	"docvault/internal/domain/repositories"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"

	"github.com/google/uuid"
)

// DefaultCollectionName names collections created implicitly by node creation
const DefaultCollectionName = "Untitled Collection"

type nodeService struct {
	collectionRepo docsysRepo.CollectionRepository
	nodeRepo       docsysRepo.NodeRepository
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	collectionRepo docsysRepo.CollectionRepository,
	nodeRepo docsysRepo.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) docsysSvc.NodeService {
	return &nodeService{
		collectionRepo: collectionRepo,
		nodeRepo:       nodeRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// LoadNode retrieves a node including its snapshot
func (s *nodeService) LoadNode(ctx context.Context, id string) (*models.Node, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &domain.ValidationError{Message: "node id is required"}
	}
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("load node", err)
	}
	return node, nil
}

// CreateNode creates a node, resolving its collection first.
// The whole operation runs in one transaction so an implicitly created
// collection never outlives a rejected node.
func (s *nodeService) CreateNode(ctx context.Context, req *docsysSvc.CreateNodeRequest) (*models.Node, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Kind == models.NodeKindFolder && len(req.Snapshot) > 0 {
		return nil, &domain.ValidationError{Message: "folders cannot carry a content snapshot"}
	}
	if len(req.Snapshot) > 0 {
		if _, err := crdt.Load(req.Snapshot); err != nil {
			return nil, &domain.CorruptSnapshotError{NodeID: req.ID, Err: err}
		}
	}

	var node *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		now := time.Now()
		collectionID, err := s.resolveCollection(txCtx, req, now)
		if err != nil {
			return err
		}
		if req.ParentID != nil {
			if err := s.checkParent(txCtx, *req.ParentID, collectionID); err != nil {
				return err
			}
		}

		if req.Kind == models.NodeKindFolder {
			node = models.NewFolderNode(req.ID, collectionID, req.Name, req.ParentID, req.Metadata)
		} else {
			node = models.NewFileNode(req.ID, collectionID, req.Name, req.ParentID, req.Snapshot, req.Metadata)
		}
		node.CreatedAt, node.UpdatedAt = now, now
		if err := node.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if err := s.nodeRepo.Create(txCtx, node); err != nil {
			return err
		}
		return s.collectionRepo.Touch(txCtx, collectionID, now)
	})
	if err != nil {
		return nil, domain.NewPersistenceError("create node", err)
	}

	s.logger.Info("node created",
		"id", node.ID,
		"kind", node.Kind,
		"collection_id", node.CollectionID,
	)
	return node, nil
}

// resolveCollection applies the collection precedence: an explicit ID must
// exist, a name creates a collection, otherwise a default one is created.
func (s *nodeService) resolveCollection(ctx context.Context, req *docsysSvc.CreateNodeRequest, now time.Time) (string, error) {
	if req.CollectionID != nil && *req.CollectionID != "" {
		collection, err := s.collectionRepo.GetByID(ctx, *req.CollectionID)
		if err != nil {
			return "", err
		}
		return collection.ID, nil
	}

	name := DefaultCollectionName
	if req.CollectionName != nil && strings.TrimSpace(*req.CollectionName) != "" {
		name = strings.TrimSpace(*req.CollectionName)
	}
	collection := &models.Collection{
		ID:        uuid.NewString(),
		Name:      name,
		Metadata:  models.Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collectionRepo.Create(ctx, collection); err != nil {
		return "", err
	}
	s.logger.Debug("collection created for node", "collection_id", collection.ID, "name", name)
	return collection.ID, nil
}

func (s *nodeService) checkParent(ctx context.Context, parentID, collectionID string) error {
	parent, err := s.nodeRepo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{Message: fmt.Sprintf("parent %s does not exist", parentID)}
		}
		return err
	}
	if !parent.IsFolder() {
		return &domain.ValidationError{Message: fmt.Sprintf("parent %s is not a folder", parentID)}
	}
	if parent.CollectionID != collectionID {
		return &domain.ValidationError{Message: fmt.Sprintf("parent %s belongs to another collection", parentID)}
	}
	return nil
}

// SaveSnapshot replaces a file node's snapshot. Snapshots that do not decode
// are rejected so a bad write never replaces good content.
func (s *nodeService) SaveSnapshot(ctx context.Context, id string, snapshot []byte) error {
	if _, err := crdt.Load(snapshot); err != nil {
		return &domain.CorruptSnapshotError{NodeID: id, Err: err}
	}

	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		node, err := s.nodeRepo.GetByID(txCtx, id)
		if err != nil {
			return domain.NewPersistenceError("save snapshot", err)
		}
		if node.IsFolder() {
			return &domain.ValidationError{Message: fmt.Sprintf("node %s is a folder and has no content", id)}
		}
		now := time.Now()
		if err := s.nodeRepo.UpdateSnapshot(txCtx, id, snapshot, now); err != nil {
			return domain.NewPersistenceError("save snapshot", err)
		}
		if err := s.collectionRepo.Touch(txCtx, node.CollectionID, now); err != nil {
			return domain.NewPersistenceError("touch collection", err)
		}
		return nil
	})
}

// UpdateTitle renames a node
func (s *nodeService) UpdateTitle(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxNodeNameLength),
		validation.By(noSlash),
	); err != nil {
		return fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		node, err := s.nodeRepo.GetByID(txCtx, id)
		if err != nil {
			return domain.NewPersistenceError("rename node", err)
		}
		now := time.Now()
		if err := s.nodeRepo.UpdateName(txCtx, id, name, now); err != nil {
			return domain.NewPersistenceError("rename node", err)
		}
		if err := s.collectionRepo.Touch(txCtx, node.CollectionID, now); err != nil {
			return domain.NewPersistenceError("touch collection", err)
		}
		s.logger.Debug("node renamed", "id", id, "name", name)
		return nil
	})
}

func (s *nodeService) validateCreateRequest(req *docsysSvc.CreateNodeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNodeNameLength), validation.By(noSlash)),
		validation.Field(&req.Kind, validation.Required, validation.In(models.NodeKindFolder, models.NodeKindFile)),
		validation.Field(&req.CollectionName, validation.NilOrNotEmpty, validation.Length(1, config.MaxCollectionNameLength)),
	)
}

// noSlash rejects names containing path separators
func noSlash(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) {
		return errors.New("must not contain path separators")
	}
	return nil
}
