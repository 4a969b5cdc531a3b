package handlers

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const createProductSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "price"],
  "additionalProperties": false,
  "properties": {
    "name":  {"type": "string", "minLength": 1, "maxLength": 255},
    "price": {"type": "number", "minimum": 0}
  }
}`

const sendMessageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["payload"],
  "additionalProperties": false,
  "properties": {
    "payload": {"type": "string"}
  }
}`

// SchemaValidator validates raw JSON request bodies against a compiled schema.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

func NewSchemaValidator(schema string) (*SchemaValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: compiled}, nil
}

func mustSchemaValidator(schema string) *SchemaValidator {
	v, err := NewSchemaValidator(schema)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *SchemaValidator) Validate(body []byte) error {
	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
	}
	return nil
}
