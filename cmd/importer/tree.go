package main

import (
	"fmt"
	"strings"

	models "docvault/internal/domain/models/docsystem"
	docsysSvc "docvault/internal/domain/services/docsystem"

	"github.com/disiqueira/gotree/v3"
)

// renderTree draws the collection as a text tree, folders suffixed with a slash
func renderTree(tree *docsysSvc.CollectionTree) string {
	root := gotree.New(tree.Collection.Name)
	for _, node := range tree.Roots {
		addNode(root, node)
	}
	return root.Print()
}

func addNode(parent gotree.Tree, node *models.TreeNode) {
	label := node.Name
	if node.Kind == models.NodeKindFolder {
		label += "/"
	}
	branch := parent.Add(label)
	for _, child := range node.Children {
		addNode(branch, child)
	}
}

func summary(result *docsysSvc.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s (%s): %d files, %d folders", result.CollectionName, result.CollectionID, result.FileCount, result.FolderCount)
	if result.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", result.Skipped)
	}
	if result.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", result.Failed)
	}
	b.WriteString("\n")
	for _, e := range result.Errors {
		fmt.Fprintf(&b, "  %s: %s\n", e.File, e.Error)
	}
	return b.String()
}
