package results

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// pageResultSchema accepts both the canonical flat shape and the legacy
// nested page_content shape. Content fields are required in one of the two
// forms; a document matching neither is rejected at aggregation time.
const pageResultSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "page_number": {"type": "integer", "minimum": 1},
    "output_format": {"type": "string", "enum": ["json", "markdown", "html", "txt"]},
    "status": {"type": "string", "enum": ["success", "failed"]},
    "image_descriptions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "image_id": {"type": "integer", "minimum": 1},
          "description": {"type": "string", "minLength": 1}
        },
        "required": ["image_id", "description"]
      }
    }
  },
  "required": ["output_format"],
  "anyOf": [
    {"required": ["grounded_output"]},
    {
      "properties": {
        "page_content": {
          "type": "object",
          "required": ["grounded"]
        }
      },
      "required": ["page_content"]
    }
  ]
}`

var compiledSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("page_result.json", strings.NewReader(pageResultSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("page_result.json")
}

// ValidateDocument checks a decoded page-result document against the wire
// schema. The argument is the generic value produced by json.Unmarshal.
func ValidateDocument(doc any) error {
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("page result failed schema validation: %w", err)
	}
	return nil
}
