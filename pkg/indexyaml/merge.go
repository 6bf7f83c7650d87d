package indexyaml

import (
	"gopkg.in/yaml.v3"
)

// NewEntries returns the candidate entries that have no equal in base once
// both sides are normalized, in candidate order. The returned nodes are the
// candidate's originals.
func NewEntries(base, candidate *Document) []*yaml.Node {
	baseEntries := base.Entries()

	normalizedBase := make([]*yaml.Node, 0, len(baseEntries))
	for _, entry := range baseEntries {
		normalizedBase = append(normalizedBase, Normalize(entry))
	}

	var fresh []*yaml.Node

	for _, entry := range candidate.Entries() {
		if !containsEqual(normalizedBase, Normalize(entry)) {
			fresh = append(fresh, entry)
		}
	}

	return fresh
}

// Merge returns a copy of base with the new candidate entries appended and
// the typed view of those entries. Neither input is modified. When nothing is
// new, the returned document is nil.
func Merge(base, candidate *Document) (*Document, []Index, error) {
	fresh := NewEntries(base, candidate)
	if len(fresh) == 0 {
		return nil, nil, nil
	}

	added, err := decodeIndexes(fresh)
	if err != nil {
		return nil, nil, err
	}

	merged := base.Clone()

	clones := make([]*yaml.Node, 0, len(fresh))
	for _, entry := range fresh {
		clones = append(clones, detachNode(entry))
	}

	merged.appendEntries(clones...)

	return merged, added, nil
}

func containsEqual(haystack []*yaml.Node, needle *yaml.Node) bool {
	for _, candidate := range haystack {
		if Equal(candidate, needle) {
			return true
		}
	}

	return false
}

// detachNode deep-copies node with aliases expanded and anchors dropped, so
// it can live in a document that does not hold the anchor.
func detachNode(node *yaml.Node) *yaml.Node {
	node = resolveAlias(node)
	if node == nil {
		return nil
	}

	clone := *node
	clone.Anchor = ""

	if node.Content != nil {
		clone.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			clone.Content[i] = detachNode(child)
		}
	}

	return &clone
}
