package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyKeyPath is returned when a key path has no segments.
var ErrEmptyKeyPath = errors.New("empty key path")

// ParseKeyPath splits a dotted key path like "image.tag" into segments.
func ParseKeyPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyKeyPath
	}

	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid key path %q: empty segment", path)
		}
	}
	return parts, nil
}

// SetNestedValue sets the value at keyPath in root, creating intermediate
// mappings as needed. root may be an empty node, in which case a new
// document is created. Comments on a replaced value are kept.
func SetNestedValue(root *yaml.Node, keyPath []string, value any) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}

	valueNode := &yaml.Node{}
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("encoding value for %s: %w", strings.Join(keyPath, "."), err)
	}

	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}
	if root.Kind != yaml.DocumentNode {
		return fmt.Errorf("expected a YAML document node")
	}
	if len(root.Content) == 0 {
		root.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	current := root.Content[0]
	if current.Kind != yaml.MappingNode {
		return fmt.Errorf("document root is not a mapping")
	}

	for i, key := range keyPath {
		idx := mappingIndex(current, key)

		if i == len(keyPath)-1 {
			if idx >= 0 {
				old := current.Content[idx+1]
				valueNode.HeadComment = old.HeadComment
				valueNode.LineComment = old.LineComment
				valueNode.FootComment = old.FootComment
				current.Content[idx+1] = valueNode
				return nil
			}
			current.Content = append(current.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				valueNode,
			)
			return nil
		}

		if idx >= 0 {
			child := current.Content[idx+1]
			if child.Kind != yaml.MappingNode {
				return fmt.Errorf("key %q is not a mapping", strings.Join(keyPath[:i+1], "."))
			}
			current = child
			continue
		}

		child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		current.Content = append(current.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			child,
		)
		current = child
	}

	return nil
}

// GetNestedValue returns the node at keyPath, or nil if any segment is
// missing.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if root == nil || len(keyPath) == 0 {
		return nil
	}

	current := root
	if current.Kind == yaml.DocumentNode {
		if len(current.Content) == 0 {
			return nil
		}
		current = current.Content[0]
	}

	for _, key := range keyPath {
		if current.Kind != yaml.MappingNode {
			return nil
		}
		idx := mappingIndex(current, key)
		if idx < 0 {
			return nil
		}
		current = current.Content[idx+1]
	}
	return current
}

// mappingIndex returns the index of key in a mapping node's content, or -1.
func mappingIndex(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// UpdateOptions configures UpdateFile.
type UpdateOptions struct {
	// Key is a dotted key path.
	Key   string
	Value string
	// Backup copies the original file to <path>.bak before writing.
	Backup bool
}

// UpdateFile sets a key in an existing YAML file and returns the written
// document. The file is syntax-checked first so that a broken file is never
// rewritten.
func UpdateFile(path string, opts UpdateOptions) ([]byte, error) {
	keyPath, err := ParseKeyPath(opts.Key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := ValidateSyntax(bytes.NewReader(original)); err != nil {
		return nil, fmt.Errorf("YAML syntax error in %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(original, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := SetNestedValue(&root, keyPath, opts.Value); err != nil {
		return nil, fmt.Errorf("setting %s in %s: %w", opts.Key, path, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}

	if opts.Backup {
		if err := os.WriteFile(path+".bak", original, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("writing backup: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	return buf.Bytes(), nil
}
