package capabilities

import (
	"context"

	"firefighter-nlp/internal/nlp/pipeline"
)

type Input struct {
	ActorID string `json:"actorId"`
}

type Output struct {
	Capabilities pipeline.Capabilities `json:"capabilities"`
	Suggestions  pipeline.Suggestions  `json:"suggestions"`
}

// Advisor answers "what can this actor ask".
type Advisor interface {
	GetCapabilities(ctx context.Context, actorID string) pipeline.Capabilities
	GetSuggestions(ctx context.Context, actorID string) pipeline.Suggestions
}

const inputSchema = `{
	"type": "object",
	"required": ["actorId"],
	"properties": {
		"actorId": {"type": "string", "minLength": 1, "maxLength": 128}
	}
}`
