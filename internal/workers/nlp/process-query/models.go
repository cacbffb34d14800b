package processquery

import (
	"context"

	"firefighter-nlp/internal/nlp/pipeline"
)

type Input struct {
	Text    string `json:"text"`
	ActorID string `json:"actorId"`
}

// Output is written back to the process instance as job variables.
type Output struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// QueryProcessor is the part of the pipeline this worker drives.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, text, actorID string) pipeline.NLPResponse
	ProcessAdminQuery(ctx context.Context, text, actorID string) pipeline.NLPResponse
}
