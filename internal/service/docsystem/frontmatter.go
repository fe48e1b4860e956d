package docsystem

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SplitFrontmatter separates a leading YAML frontmatter block from the body.
// Expected format:
//
//	---
//	title: Chapter One
//	tags: [draft]
//	---
//	# Markdown content here
//
// A leading UTF-8 BOM is dropped. Otherwise content without frontmatter is
// returned unchanged with nil metadata, and an opening delimiter without a
// closing one is treated as content.
func SplitFrontmatter(content []byte) (map[string]any, []byte, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return nil, content, nil
	}

	lines := bytes.Split(content, []byte("\n"))
	closing := 0
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			closing = i
			break
		}
	}
	if closing == 0 {
		return nil, content, nil
	}

	yamlContent := bytes.Join(lines[1:closing], []byte("\n"))
	var metadata map[string]any
	if err := yaml.Unmarshal(yamlContent, &metadata); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}

	body := bytes.Join(lines[closing+1:], []byte("\n"))
	return metadata, bytes.TrimLeft(body, "\r\n"), nil
}
