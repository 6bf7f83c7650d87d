package indexyaml

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const encodeIndent = 2

// Encode serializes the document in block style, keeping key order, and
// puts a blank line before every entry of the indexes list.
func (d *Document) Encode() ([]byte, error) {
	root := cloneNode(d.root)
	blockStyle(root)

	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(encodeIndent)

	err := encoder.Encode(root)
	if err != nil {
		return nil, fmt.Errorf("encode index document: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return nil, fmt.Errorf("encode index document: %w", err)
	}

	return []byte(separateEntries(buf.String())), nil
}

func blockStyle(node *yaml.Node) {
	if node == nil {
		return
	}

	node.Style &^= yaml.FlowStyle

	for _, child := range node.Content {
		blockStyle(child)
	}
}

// separateEntries inserts a blank line before each item marker of the
// top-level indexes sequence. A comment block directly above an item stays
// attached to it.
func separateEntries(text string) string {
	lines := strings.SplitAfter(text, "\n")
	out := make([]string, 0, len(lines)*2)

	inIndexes := false
	marker := ""
	commentStart := -1

	for _, line := range lines {
		content := strings.TrimRight(line, "\n")
		trimmed := strings.TrimLeft(content, " ")

		switch {
		case content == "":
			commentStart = -1
		case content[0] != ' ' && content[0] != '#' && !strings.HasPrefix(content, "- "):
			inIndexes = strings.HasPrefix(content, indexesKey+":")
			marker = ""
			commentStart = -1
		case strings.HasPrefix(trimmed, "#"):
			if commentStart < 0 {
				commentStart = len(out)
			}
		default:
			if inIndexes && marker == "" && strings.HasPrefix(trimmed, "- ") {
				marker = content[:len(content)-len(trimmed)] + "- "
			}

			if inIndexes && marker != "" && strings.HasPrefix(content, marker) {
				at := len(out)
				if commentStart >= 0 {
					at = commentStart
				}

				out = append(out[:at], append([]string{"\n"}, out[at:]...)...)
			}

			commentStart = -1
		}

		out = append(out, line)
	}

	return strings.Join(out, "")
}
