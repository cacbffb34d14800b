package pipeline

import (
	"context"
	"time"

	"firefighter-nlp/internal/nlp/entity"
	"firefighter-nlp/internal/nlp/intent"
	"firefighter-nlp/internal/nlp/query"
)

// NLPResponse is the only value handed back to callers.
type NLPResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Capabilities describes what an actor may ask for.
type Capabilities struct {
	Available        bool     `json:"available"`
	IsAdmin          bool     `json:"isAdmin"`
	AccessLevel      string   `json:"accessLevel,omitempty"`
	SuggestedQueries []string `json:"suggestedQueries"`
}

// Example is one sample phrasing for an intent.
type Example struct {
	Intent      intent.Type `json:"intent"`
	Query       string      `json:"query"`
	Description string      `json:"description"`
}

type Suggestions struct {
	Available        bool      `json:"available"`
	UserRole         string    `json:"userRole,omitempty"`
	AccessLevel      string    `json:"accessLevel,omitempty"`
	SuggestedQueries []string  `json:"suggestedQueries"`
	Examples         []Example `json:"examples"`
}

type Classifier interface {
	Recognize(text string) (intent.Intent, bool)
}

type PermissionGate interface {
	IsIntentAllowed(t intent.Type, role string) bool
	Allowed(role string) []intent.Type
}

type Validator interface {
	Validate(entities entity.Extracted, in intent.Intent) entity.ValidationResult
}

type Dispatcher interface {
	Process(ctx context.Context, in intent.Intent, entities entity.Extracted, actorID string, isAdmin bool) query.Result
}

type Generator interface {
	Generate(r query.Result) string
}

// RoleResolver maps an actor to a role name such as "USER" or "ADMIN".
type RoleResolver interface {
	RoleOf(ctx context.Context, actorID string) (string, error)
}

// Recorder receives one observation per processed query.
type Recorder interface {
	RecordQuery(path, outcome string, duration time.Duration)
}

// Recorders fans one observation out to several recorders.
type Recorders []Recorder

func (rs Recorders) RecordQuery(path, outcome string, duration time.Duration) {
	for _, r := range rs {
		if r != nil {
			r.RecordQuery(path, outcome, duration)
		}
	}
}

// Outcome labels.
const (
	OutcomeSuccess          = "success"
	OutcomeNotUnderstood    = "not_understood"
	OutcomePermissionDenied = "permission_denied"
	OutcomeInvalidEntities  = "invalid_entities"
	OutcomeOperationFailed  = "operation_failed"
)

// Path labels.
const (
	PathUser  = "user"
	PathAdmin = "admin"
)
