package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchema is the shape a session file must have to be listed or
// loaded. Title, provider and model may be missing; List shows fallbacks and
// the controller keeps its selection.
const recordSchema = `{
  "type": "object",
  "required": ["id", "messages"],
  "properties": {
    "id":       {"type": "string", "minLength": 1},
    "title":    {"type": "string"},
    "provider": {"type": "string"},
    "model":    {"type": "string"},
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "properties": {
          "role":    {"enum": ["user", "assistant"]},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

var recordSchemaLoader = gojsonschema.NewStringLoader(recordSchema)

type validator struct {
	schema *gojsonschema.Schema
}

func newValidator(loader gojsonschema.JSONLoader) (*validator, error) {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("failed to compile session schema: %w", err)
	}
	return &validator{schema: schema}, nil
}

// validate returns an ErrMalformed-wrapped error describing every violation.
func (v *validator) validate(data []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(problems, "; "))
}

var (
	ErrNotFound  = errors.New("session not found")
	ErrMalformed = errors.New("session record malformed")
)
