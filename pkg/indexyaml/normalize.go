package indexyaml

import (
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	propertiesKey = "properties"
	nameKey       = "name"
)

// Normalize returns a copy of entry whose property list is sorted by property
// name. The entry itself is never modified.
func Normalize(entry *yaml.Node) *yaml.Node {
	clone := cloneNode(resolveAlias(entry))

	props, ok := mappingValue(clone, propertiesKey)
	if !ok {
		return clone
	}

	props = resolveAlias(props)
	if props.Kind != yaml.SequenceNode {
		return clone
	}

	sort.SliceStable(props.Content, func(i, j int) bool {
		return propertyName(props.Content[i]) < propertyName(props.Content[j])
	})

	return clone
}

func propertyName(prop *yaml.Node) string {
	value, ok := mappingValue(prop, nameKey)
	if !ok {
		return ""
	}

	return resolveAlias(value).Value
}

// Equal reports whether two nodes hold the same data. Mapping key order is
// ignored, sequence order is not, and scalars compare by resolved value.
func Equal(a, b *yaml.Node) bool {
	a, b = resolveAlias(a), resolveAlias(b)

	if a == nil || b == nil {
		return a == b
	}

	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		return equalSequences(a.Content, b.Content)
	case yaml.MappingNode:
		return equalMappings(a, b)
	case yaml.ScalarNode:
		return equalScalars(a, b)
	default:
		return false
	}
}

func equalSequences(a, b []*yaml.Node) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

func equalMappings(a, b *yaml.Node) bool {
	if len(a.Content) != len(b.Content) {
		return false
	}

	for i := 0; i+1 < len(a.Content); i += 2 {
		key, value := a.Content[i], a.Content[i+1]

		other, ok := lookupKey(b, key)
		if !ok || !Equal(value, other) {
			return false
		}
	}

	return true
}

func lookupKey(mapping, key *yaml.Node) (*yaml.Node, bool) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if Equal(mapping.Content[i], key) {
			return mapping.Content[i+1], true
		}
	}

	return nil, false
}

func equalScalars(a, b *yaml.Node) bool {
	if a.ShortTag() != b.ShortTag() {
		return false
	}

	if a.Value == b.Value {
		return true
	}

	// Same tag, different spelling (e.g. 0x10 and 16).
	var av, bv any

	if a.Decode(&av) != nil || b.Decode(&bv) != nil {
		return false
	}

	return reflect.DeepEqual(av, bv)
}
