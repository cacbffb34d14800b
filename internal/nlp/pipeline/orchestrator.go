// Package pipeline composes classification, authorization, entity
// extraction, dispatch and response generation into the query entry points.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/entity"
	"firefighter-nlp/internal/nlp/intent"
	"firefighter-nlp/internal/nlp/permission"
	"firefighter-nlp/internal/nlp/query"
	"firefighter-nlp/internal/nlp/response"

	"github.com/google/uuid"
)

// Dependencies are the stages the orchestrator runs. Classifier,
// Permissions and Generator fall back to the built-in implementations when
// nil. A nil Extractor, Validator or Dispatcher is treated as an unavailable
// service at that stage. A nil Roles resolves every actor to DefaultRole.
type Dependencies struct {
	Classifier  Classifier
	Permissions PermissionGate
	Extractor   entity.Extractor
	Validator   Validator
	Dispatcher  Dispatcher
	Generator   Generator
	Roles       RoleResolver
	Recorder    Recorder
	Logger      logger.Logger
	DefaultRole string
}

// Orchestrator holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	classifier  Classifier
	permissions PermissionGate
	extractor   entity.Extractor
	validator   Validator
	dispatcher  Dispatcher
	generator   Generator
	roles       RoleResolver
	recorder    Recorder
	logger      logger.Logger
	defaultRole string
}

func NewOrchestrator(deps Dependencies) *Orchestrator {
	o := &Orchestrator{
		classifier:  deps.Classifier,
		permissions: deps.Permissions,
		extractor:   deps.Extractor,
		validator:   deps.Validator,
		dispatcher:  deps.Dispatcher,
		generator:   deps.Generator,
		roles:       deps.Roles,
		recorder:    deps.Recorder,
		logger:      deps.Logger,
		defaultRole: models.NormalizeRole(deps.DefaultRole),
	}
	if o.classifier == nil {
		o.classifier = intent.NewClassifier(intent.DefaultMinConfidence)
	}
	if o.permissions == nil {
		o.permissions = permission.DefaultTable()
	}
	if o.generator == nil {
		o.generator = response.NewGenerator()
	}
	if o.logger == nil {
		o.logger = logger.NewNoOpLogger()
	}
	if o.defaultRole == "" {
		o.defaultRole = models.RoleUser
	}
	o.logger = o.logger.With(map[string]interface{}{"component": "nlp-pipeline"})
	return o
}

// ProcessQuery runs text for an ordinary user, gating the intent on the
// actor's role.
func (o *Orchestrator) ProcessQuery(ctx context.Context, text, actorID string) NLPResponse {
	return o.process(ctx, text, actorID, PathUser)
}

// ProcessAdminQuery runs text for a caller already verified as an
// administrator. It does not consult roles or permissions.
func (o *Orchestrator) ProcessAdminQuery(ctx context.Context, text, actorID string) NLPResponse {
	return o.process(ctx, text, actorID, PathAdmin)
}

func (o *Orchestrator) process(ctx context.Context, text, actorID, path string) NLPResponse {
	start := time.Now()
	log := o.logger.With(map[string]interface{}{
		"requestId": uuid.NewString(),
		"actorId":   actorID,
		"path":      path,
	})
	log.Debug("processing query", map[string]interface{}{"text": text})

	resp, outcome := o.run(ctx, text, actorID, path, log)

	if o.recorder != nil {
		o.recorder.RecordQuery(path, outcome, time.Since(start))
	}
	log.Info("query processed", map[string]interface{}{
		"outcome":    outcome,
		"success":    resp.Success,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resp
}

func (o *Orchestrator) run(ctx context.Context, text, actorID, path string, log logger.Logger) (NLPResponse, string) {
	isAdmin := path == PathAdmin
	role := models.RoleAdmin
	if !isAdmin {
		role = o.resolveRole(ctx, actorID, log)
		isAdmin = role == models.RoleAdmin
	}

	in, ok := o.classifier.Recognize(text)
	if !ok {
		err := apperrors.NewIntentNotRecognizedError(text)
		log.Info("intent not recognized", map[string]interface{}{"stage": "classify"})
		return fail(err.Message), OutcomeNotUnderstood
	}
	log = log.With(map[string]interface{}{"intent": string(in.Type)})

	if path == PathUser && !o.permissions.IsIntentAllowed(in.Type, role) {
		err := apperrors.NewPermissionDeniedError(string(in.Type), role)
		log.Warn("permission denied", map[string]interface{}{"stage": "authorize", "role": role})
		return fail(err.Message), OutcomePermissionDenied
	}

	entities, errs := o.extractAndValidate(in, log)
	if errs != nil {
		msg := apperrors.NewEntityValidationFailedError(errs).Message
		if len(errs) > 0 {
			msg += ": " + strings.Join(errs, "; ")
		}
		log.Info("entity validation failed", map[string]interface{}{"stage": "validate", "errors": errs})
		return fail(msg), OutcomeInvalidEntities
	}

	result := o.dispatch(ctx, in, entities, actorID, isAdmin, log)
	if !result.Success {
		log.Warn("operation failed", map[string]interface{}{
			"stage":   "dispatch",
			"code":    string(result.Code),
			"message": result.Message,
		})
		msg := result.Message
		if msg == "" {
			msg = "Operation failed"
		}
		return fail(msg), OutcomeOperationFailed
	}

	return NLPResponse{
		Success: true,
		Message: o.generator.Generate(result),
		Data:    result.Payload,
	}, OutcomeSuccess
}

// resolveRole never fails; unknown or unresolvable actors get defaultRole.
func (o *Orchestrator) resolveRole(ctx context.Context, actorID string, log logger.Logger) (role string) {
	if o.roles == nil {
		return o.defaultRole
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("role lookup panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			role = o.defaultRole
		}
	}()

	resolved, err := o.roles.RoleOf(ctx, actorID)
	if err != nil {
		log.Warn("role lookup failed, using default role", map[string]interface{}{
			"error":       err.Error(),
			"defaultRole": o.defaultRole,
		})
		return o.defaultRole
	}
	resolved = models.NormalizeRole(resolved)
	if resolved == "" {
		return o.defaultRole
	}
	return resolved
}

// extractAndValidate returns a non-nil error list when the stage fails. An
// unavailable or failing extractor yields an empty, non-nil list.
func (o *Orchestrator) extractAndValidate(in intent.Intent, log logger.Logger) (entities entity.Extracted, errs []string) {
	if o.extractor == nil || o.validator == nil {
		log.Error("entity stage unavailable", map[string]interface{}{
			"stage": "extract",
			"error": apperrors.NewServiceUnavailableError("Entity extraction", nil).Message,
		})
		return entity.Extracted{}, []string{}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("entity stage panicked", map[string]interface{}{"stage": "extract", "panic": fmt.Sprint(r)})
			entities, errs = entity.Extracted{}, []string{}
		}
	}()

	entities, err := o.extractor.Extract(in.SourceText)
	if err != nil {
		log.Error("entity extraction failed", map[string]interface{}{"stage": "extract", "error": err.Error()})
		return entity.Extracted{}, []string{}
	}

	result := o.validator.Validate(entities, in)
	if !result.Valid {
		if len(result.Errors) == 0 {
			return entities, []string{}
		}
		return entities, result.Errors
	}
	log.Debug("entities extracted", map[string]interface{}{"entities": entities.Summary()})
	return entities, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, in intent.Intent, entities entity.Extracted, actorID string, isAdmin bool, log logger.Logger) (result query.Result) {
	if o.dispatcher == nil {
		return query.FailureFromError("Ticket service", apperrors.NewServiceUnavailableError("Ticket service", nil))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatcher panicked", map[string]interface{}{"stage": "dispatch", "panic": fmt.Sprint(r)})
			result = query.FailureFromError("Ticket service", fmt.Errorf("panic: %v", r))
		}
	}()
	return o.dispatcher.Process(ctx, in, entities, actorID, isAdmin)
}

func fail(message string) NLPResponse {
	return NLPResponse{Success: false, Message: message}
}
