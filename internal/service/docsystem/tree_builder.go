package docsystem

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"docvault/internal/domain"
	models "docvault/internal/domain/models/docsystem"
)

// BuildTree builds the ordered forest of one collection's nodes.
//
// Nodes live in an arena indexed by id. A node whose parent is missing, is
// not a folder, belongs to another collection or closes a cycle is promoted
// to a root and reported as a *domain.DanglingParentError in the joined
// error; the forest is always complete. Duplicate ids keep the first node.
// Siblings are ordered folders first, then by locale collation of the name.
func BuildTree(nodes []models.Node) ([]*models.TreeNode, error) {
	var errs []error

	arena := make([]*models.TreeNode, 0, len(nodes))
	source := make([]*models.Node, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if _, dup := index[n.ID]; dup {
			errs = append(errs, fmt.Errorf("node %s: duplicate id dropped", n.ID))
			continue
		}
		index[n.ID] = len(arena)
		arena = append(arena, &models.TreeNode{
			ID:        n.ID,
			Name:      n.Name,
			Kind:      n.Kind,
			ParentID:  n.ParentID,
			Metadata:  n.Metadata,
			UpdatedAt: n.UpdatedAt,
			Children:  []*models.TreeNode{},
		})
		source = append(source, n)
	}

	parent := make([]int, len(arena))
	for i, n := range source {
		parent[i] = -1
		if n.ParentID == nil {
			continue
		}
		p, ok := index[*n.ParentID]
		switch {
		case !ok:
			errs = append(errs, &domain.DanglingParentError{NodeID: n.ID, ParentID: *n.ParentID, Reason: "not found"})
		case source[p].Kind != models.NodeKindFolder:
			errs = append(errs, &domain.DanglingParentError{NodeID: n.ID, ParentID: *n.ParentID, Reason: "is not a folder"})
		case source[p].CollectionID != n.CollectionID:
			errs = append(errs, &domain.DanglingParentError{NodeID: n.ID, ParentID: *n.ParentID, Reason: "belongs to another collection"})
		default:
			parent[i] = p
		}
	}

	// Break cycles: walk each parent chain once; reaching a node already on
	// the current walk means its link closes a cycle.
	const (
		unvisited = iota
		walking
		done
	)
	state := make([]int, len(arena))
	for i := range arena {
		var walk []int
		j := i
		for j != -1 && state[j] == unvisited {
			state[j] = walking
			walk = append(walk, j)
			j = parent[j]
		}
		if j != -1 && state[j] == walking {
			errs = append(errs, &domain.DanglingParentError{NodeID: source[j].ID, ParentID: *source[j].ParentID, Reason: "forms a cycle"})
			parent[j] = -1
		}
		for _, k := range walk {
			state[k] = done
		}
	}

	roots := make([]*models.TreeNode, 0)
	for i, node := range arena {
		if parent[i] == -1 {
			roots = append(roots, node)
			continue
		}
		arena[parent[i]].Children = append(arena[parent[i]].Children, node)
	}

	sorter := newSiblingSorter()
	sorter.sort(roots)
	for _, node := range arena {
		sorter.sort(node.Children)
	}

	return roots, errors.Join(errs...)
}

type siblingSorter struct {
	collator *collate.Collator
}

func newSiblingSorter() *siblingSorter {
	return &siblingSorter{collator: collate.New(language.Und)}
}

func (s *siblingSorter) sort(siblings []*models.TreeNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		return s.less(siblings[i], siblings[j])
	})
}

func (s *siblingSorter) less(a, b *models.TreeNode) bool {
	aFolder, bFolder := a.Kind == models.NodeKindFolder, b.Kind == models.NodeKindFolder
	if aFolder != bFolder {
		return aFolder
	}
	if c := s.collator.CompareString(a.Name, b.Name); c != 0 {
		return c < 0
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
