package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// riskResponseSchema constrains the structured JSON the AI provider is
// asked to emit. Anything outside it falls through to the free-text parse.
const riskResponseSchema = `{
	"type": "object",
	"properties": {
		"risk_level": {
			"type": "string",
			"enum": ["low", "medium", "high", "critical"]
		},
		"risk_score": {
			"type": "number",
			"minimum": 0,
			"maximum": 100
		},
		"summary": {
			"type": "string"
		},
		"key_findings": {
			"type": "array",
			"items": {"type": "string"}
		},
		"recommendations": {
			"type": "array",
			"items": {"type": "string"}
		},
		"confidence": {
			"type": "number",
			"minimum": 0,
			"maximum": 1
		}
	},
	"required": ["risk_level", "risk_score", "summary"],
	"additionalProperties": true
}`

var riskSchema = gojsonschema.NewStringLoader(riskResponseSchema)

// ValidateRiskResponse checks a decoded AI reply against the structured
// response schema.
func ValidateRiskResponse(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(riskSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("risk response validation failed: %v", errs)
	}

	return nil
}

// ValidateDocument checks an arbitrary document against an arbitrary
// schema map. Empty schemas accept everything.
func ValidateDocument(schemaMap, doc map[string]interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %v", errs)
	}

	return nil
}
