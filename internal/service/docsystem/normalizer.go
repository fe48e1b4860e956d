package docsystem

import (
	"fmt"
	"sort"
	"strings"

	"docvault/internal/config"
	"docvault/internal/domain"
	docsysSvc "docvault/internal/domain/services/docsystem"
)

// FileTree is the normalized, single-rooted form of an import. Nodes is an
// arena; index 0 is the synthetic root, which is never persisted.
type FileTree struct {
	Nodes []FileTreeNode

	firstPath     string
	firstIsFolder bool
	children      map[childKey]int
}

// FileTreeNode is a folder or file of a FileTree.
type FileTreeNode struct {
	Name     string
	Path     string
	IsFolder bool
	Content  []byte
	Parent   int // -1 for the root
	Depth    int // 0 for the root, 1 for collection roots
	Children []int
}

type childKey struct {
	parent int
	name   string
}

const rootIndex = 0

// NormalizeEntries builds a FileTree from unordered (path, content) entries.
// Entries are processed in path order; folders are found-or-created per
// (parent, name), so a folder shared by several paths yields one node. Any
// malformed path rejects the whole input with a *domain.InvalidPathError.
func NormalizeEntries(entries []docsysSvc.ImportEntry) (*FileTree, error) {
	type cleaned struct {
		path     string
		segments []string
		folder   bool
		content  []byte
	}

	items := make([]cleaned, 0, len(entries))
	for _, entry := range entries {
		path, segments, trailingSlash, err := cleanImportPath(entry.Path)
		if err != nil {
			return nil, err
		}
		items = append(items, cleaned{
			path:     path,
			segments: segments,
			folder:   entry.IsFolder() || trailingSlash,
			content:  entry.Content,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].path < items[j].path })

	tree := &FileTree{
		Nodes:    []FileTreeNode{{Parent: -1, IsFolder: true}},
		children: make(map[childKey]int),
	}
	if len(items) > 0 {
		tree.firstPath = items[0].path
		tree.firstIsFolder = items[0].folder
	}

	for _, item := range items {
		cursor := rootIndex
		last := len(item.segments) - 1
		for i, segment := range item.segments[:last] {
			next, err := tree.findOrCreateFolder(cursor, segment, strings.Join(item.segments[:i+1], "/"))
			if err != nil {
				return nil, err
			}
			cursor = next
		}

		leaf := item.segments[last]
		if item.folder {
			if _, err := tree.findOrCreateFolder(cursor, leaf, item.path); err != nil {
				return nil, err
			}
			continue
		}
		if existing, ok := tree.children[childKey{cursor, leaf}]; ok {
			reason := "duplicate file"
			if tree.Nodes[existing].IsFolder {
				reason = "file collides with a folder of the same name"
			}
			return nil, &domain.InvalidPathError{Path: item.path, Reason: reason}
		}
		content := item.content
		if content == nil {
			content = []byte{}
		}
		tree.add(FileTreeNode{Name: leaf, Path: item.path, Content: content, Parent: cursor})
	}

	return tree, nil
}

func (t *FileTree) findOrCreateFolder(parent int, name, path string) (int, error) {
	if idx, ok := t.children[childKey{parent, name}]; ok {
		if !t.Nodes[idx].IsFolder {
			return 0, &domain.InvalidPathError{Path: path, Reason: "folder collides with a file of the same name"}
		}
		return idx, nil
	}
	return t.add(FileTreeNode{Name: name, Path: path, IsFolder: true, Parent: parent}), nil
}

func (t *FileTree) add(node FileTreeNode) int {
	idx := len(t.Nodes)
	node.Depth = t.Nodes[node.Parent].Depth + 1
	t.Nodes = append(t.Nodes, node)
	t.Nodes[node.Parent].Children = append(t.Nodes[node.Parent].Children, idx)
	t.children[childKey{node.Parent, node.Name}] = idx
	return idx
}

// Files returns the indices of all file nodes in path order.
func (t *FileTree) Files() []int {
	var out []int
	for i := 1; i < len(t.Nodes); i++ {
		if !t.Nodes[i].IsFolder {
			out = append(out, i)
		}
	}
	return out
}

// FoldersByDepth returns folder indices ordered parents-first
// (ascending depth, then path).
func (t *FileTree) FoldersByDepth() []int {
	var out []int
	for i := 1; i < len(t.Nodes); i++ {
		if t.Nodes[i].IsFolder {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		na, nb := t.Nodes[out[a]], t.Nodes[out[b]]
		if na.Depth != nb.Depth {
			return na.Depth < nb.Depth
		}
		return na.Path < nb.Path
	})
	return out
}

// FirstPath returns the first path in sorted order and whether it named a folder.
func (t *FileTree) FirstPath() (string, bool) {
	return t.firstPath, t.firstIsFolder
}

// cleanImportPath normalizes separators, strips "./" and "/" prefixes and
// validates every segment.
func cleanImportPath(raw string) (string, []string, bool, error) {
	path := strings.ReplaceAll(raw, `\`, "/")
	for {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(path, "./"), "/")
		if trimmed == path {
			break
		}
		path = trimmed
	}
	trailingSlash := strings.HasSuffix(path, "/")
	path = strings.TrimSuffix(path, "/")

	if strings.TrimSpace(path) == "" {
		return "", nil, false, &domain.InvalidPathError{Path: raw, Reason: "path has no segments"}
	}
	if len(path) > config.MaxImportPathLength {
		return "", nil, false, &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("path exceeds %d characters", config.MaxImportPathLength)}
	}

	segments := strings.Split(path, "/")
	if len(segments) > config.MaxImportPathDepth {
		return "", nil, false, &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("path is deeper than %d levels", config.MaxImportPathDepth)}
	}
	for i, segment := range segments {
		switch {
		case strings.TrimSpace(segment) == "":
			return "", nil, false, &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("empty segment at position %d", i)}
		case segment == "." || segment == "..":
			return "", nil, false, &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("relative segment %q", segment)}
		case len(segment) > config.MaxNodeNameLength:
			return "", nil, false, &domain.InvalidPathError{Path: raw, Reason: fmt.Sprintf("segment exceeds %d characters", config.MaxNodeNameLength)}
		}
	}
	return path, segments, trailingSlash, nil
}
