package processquery

import (
	"fmt"

	"firefighter-nlp/internal/common/validation"
)

const inputSchemaTemplate = `{
	"type": "object",
	"required": ["text", "actorId"],
	"properties": {
		"text":    {"type": "string", "minLength": 1, "maxLength": %d},
		"actorId": {"type": "string", "minLength": 1, "maxLength": 128}
	}
}`

// GetInputSchema compiles the job-variable schema for the configured text limit.
func GetInputSchema(maxTextLength int) (*validation.Schema, error) {
	return validation.Compile("nlp-query-input", fmt.Sprintf(inputSchemaTemplate, maxTextLength))
}
