// Package indexyaml reads, compares, merges and writes datastore index
// definition files (index.yaml).
//
// Documents are kept as YAML node trees so that key order, unknown keys and
// property order survive a merge untouched.
package indexyaml

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const indexesKey = "indexes"

// Document errors.
var (
	ErrMissingIndexes    = errors.New("document has no indexes key")
	ErrMalformedDocument = errors.New("malformed index document")
)

// Property is one indexed property of an Index.
type Property struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction,omitempty"`
	Mode      string `yaml:"mode,omitempty"`
}

// Index is a typed view of one entry, used for reporting.
type Index struct {
	Kind       string     `yaml:"kind"`
	Ancestor   string     `yaml:"ancestor,omitempty"`
	Properties []Property `yaml:"properties"`
}

// String renders the index as "Kind(name asc, other desc)".
func (ix Index) String() string {
	parts := make([]string, 0, len(ix.Properties))

	for _, prop := range ix.Properties {
		part := prop.Name
		if prop.Direction != "" {
			part += " " + prop.Direction
		}

		parts = append(parts, part)
	}

	prefix := ix.Kind
	if ix.Ancestor != "" {
		prefix += " ancestor=" + ix.Ancestor
	}

	return prefix + "(" + strings.Join(parts, ", ") + ")"
}

// Document is a parsed index file.
type Document struct {
	root *yaml.Node
}

// Parse decodes and shape-checks an index document.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node

	err := yaml.Unmarshal(data, &root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrMissingIndexes
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformedDocument)
	}

	if _, ok := mappingValue(top, indexesKey); !ok {
		return nil, ErrMissingIndexes
	}

	validateErr := validateShape(&root)
	if validateErr != nil {
		return nil, validateErr
	}

	return &Document{root: &root}, nil
}

// Load reads and parses the index document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return doc, nil
}

// Entries returns the index entry nodes in document order. A null indexes
// value has no entries. The nodes belong to the document.
func (d *Document) Entries() []*yaml.Node {
	value := d.indexesNode()
	if value == nil || value.Kind != yaml.SequenceNode {
		return nil
	}

	return value.Content
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.Entries())
}

// Indexes decodes every entry into its typed view.
func (d *Document) Indexes() ([]Index, error) {
	return decodeIndexes(d.Entries())
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// appendEntries appends entries to the indexes sequence, turning a null
// value into a sequence first.
func (d *Document) appendEntries(entries ...*yaml.Node) {
	top := d.root.Content[0]

	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != indexesKey {
			continue
		}

		value := resolveAlias(top.Content[i+1])
		if value.Kind != yaml.SequenceNode {
			value = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			top.Content[i+1] = value
		}

		value.Content = append(value.Content, entries...)

		return
	}
}

func (d *Document) indexesNode() *yaml.Node {
	value, ok := mappingValue(d.root.Content[0], indexesKey)
	if !ok {
		return nil
	}

	return resolveAlias(value)
}

func decodeIndexes(nodes []*yaml.Node) ([]Index, error) {
	out := make([]Index, 0, len(nodes))

	for _, node := range nodes {
		var ix Index

		err := node.Decode(&ix)
		if err != nil {
			return nil, fmt.Errorf("%w: entry at line %d: %w", ErrMalformedDocument, node.Line, err)
		}

		out = append(out, ix)
	}

	return out, nil
}

func mappingValue(mapping *yaml.Node, key string) (*yaml.Node, bool) {
	mapping = resolveAlias(mapping)
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil, false
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1], true
		}
	}

	return nil, false
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	return node
}

func cloneNode(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}

	clone := *node

	if node.Content != nil {
		clone.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			clone.Content[i] = cloneNode(child)
		}
	}

	return &clone
}
