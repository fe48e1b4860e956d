package docsystem

import (
	"context"
	"errors"
	"log/slog"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

type collectionService struct {
	collectionRepo docsysRepo.CollectionRepository
	nodeRepo       docsysRepo.NodeRepository
	logger         *slog.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(
	collectionRepo docsysRepo.CollectionRepository,
	nodeRepo docsysRepo.NodeRepository,
	logger *slog.Logger,
) docsysSvc.CollectionService {
	return &collectionService{
		collectionRepo: collectionRepo,
		nodeRepo:       nodeRepo,
		logger:         logger,
	}
}

// LatestCollection returns the most recently updated collection with its nodes
func (s *collectionService) LatestCollection(ctx context.Context) (*models.CollectionWithNodes, error) {
	collection, err := s.collectionRepo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.NewPersistenceError("load latest collection", err)
	}

	nodes, err := s.nodeRepo.ListByCollection(ctx, collection.ID)
	if err != nil {
		return nil, domain.NewPersistenceError("list nodes", err)
	}
	return &models.CollectionWithNodes{Collection: *collection, Nodes: nodes}, nil
}

// GetTree builds the ordered forest of a collection. Integrity problems are
// recovered by the tree builder and reported as warnings.
func (s *collectionService) GetTree(ctx context.Context, collectionID string) (*docsysSvc.CollectionTree, error) {
	collection, err := s.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		return nil, domain.NewPersistenceError("load collection", err)
	}

	nodes, err := s.nodeRepo.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, domain.NewPersistenceError("list nodes", err)
	}

	roots, buildErr := BuildTree(nodes)
	tree := &docsysSvc.CollectionTree{Collection: *collection, Roots: roots}
	if buildErr != nil {
		tree.Warnings = warningsOf(buildErr)
		s.logger.Warn("collection tree recovered from integrity errors",
			"collection_id", collectionID,
			"warnings", len(tree.Warnings),
		)
	}
	return tree, nil
}

// warningsOf flattens a joined error into one message per cause
func warningsOf(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
