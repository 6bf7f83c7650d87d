package indexyaml

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// documentSchema describes the accepted shape of index.yaml.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["indexes"],
  "properties": {
    "indexes": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["kind", "properties"],
        "properties": {
          "kind": {"type": "string", "minLength": 1},
          "properties": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "direction": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

func validateShape(root *yaml.Node) error {
	var generic any

	err := root.Decode(&generic)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(generic))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrMalformedDocument, strings.Join(problems, "; "))
}

// Validate parses data and returns every shape problem found, or nil.
func Validate(data []byte) error {
	_, err := Parse(data)

	return err
}
