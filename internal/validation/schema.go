// Package validation checks the shape of inbound JSON documents before they
// are decoded into domain types.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaError lists every schema violation of one document.
type SchemaError struct {
	Errors []string
}

func (e *SchemaError) Error() string {
	return "request validation failed: " + strings.Join(e.Errors, "; ")
}

// Validator holds compiled schemas.
type Validator struct {
	analysis *gojsonschema.Schema
}

func New() (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile analysis schema: %w", err)
	}
	return &Validator{analysis: s}, nil
}

// AnalysisRequest validates the body of POST /analyses.
func (v *Validator) AnalysisRequest(body []byte) error {
	result, err := v.analysis.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &SchemaError{Errors: []string{"body is not valid JSON"}}
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return &SchemaError{Errors: errs}
}

const analysisRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["profile"],
  "properties": {
    "tier": {"type": "string", "enum": ["basic", "professional", "enterprise"]},
    "recipient": {"type": "string", "maxLength": 254},
    "profile": {
      "type": "object",
      "properties": {
        "id": {"type": "string", "maxLength": 128},
        "store_name": {"type": "string", "maxLength": 200},
        "store_type": {"type": "string", "maxLength": 100},
        "store_size": {"type": "number"},
        "city": {"type": "string", "maxLength": 100},
        "address": {"type": "string", "maxLength": 500},
        "store_length": {"type": "number"},
        "store_width": {"type": "number"},
        "ceiling_height": {"type": "number"},
        "layout_description": {"type": "string", "maxLength": 4000},
        "primary_colors": {"type": "array", "maxItems": 20, "items": {"type": "string"}},
        "lighting_type": {"type": "string", "maxLength": 100},
        "daily_customers": {"type": "integer"},
        "avg_dwell_minutes": {"type": "number"},
        "daily_sales": {"type": "number"},
        "monthly_sales": {"type": "number"},
        "product_categories": {"type": "array", "maxItems": 50, "items": {"type": "string"}},
        "question": {"type": "string", "maxLength": 4000},
        "media": {
          "type": "array",
          "maxItems": 50,
          "items": {
            "type": "object",
            "required": ["uri"],
            "properties": {
              "id": {"type": "string"},
              "kind": {"type": "string", "enum": ["image", "video"]},
              "uri": {"type": "string", "minLength": 1},
              "mime_type": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`
