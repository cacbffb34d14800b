// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Pipeline taxonomy
	ErrCodeIntentNotRecognized    ErrorCode = "INTENT_NOT_RECOGNIZED"
	ErrCodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	ErrCodeEntityValidationFailed ErrorCode = "ENTITY_VALIDATION_FAILED"
	ErrCodeOperationFailed        ErrorCode = "OPERATION_FAILED"
	ErrCodeServiceUnavailable     ErrorCode = "SERVICE_UNAVAILABLE"

	// Postgres
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	// Ticket domain
	ErrCodeTicketNotFound        ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeTicketAlreadyRevoked  ErrorCode = "TICKET_ALREADY_REVOKED"
	ErrCodeTicketCreationFailed  ErrorCode = "TICKET_CREATION_FAILED"
	ErrCodeTicketAccessForbidden ErrorCode = "TICKET_ACCESS_FORBIDDEN"

	// Role directory
	ErrCodeRoleLookupFailed ErrorCode = "ROLE_LOOKUP_FAILED"
	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"

	// Elasticsearch
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	// Job transport
	ErrCodeInvalidJobInput     ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeJobCompletionFailed ErrorCode = "JOB_COMPLETION_FAILED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a standardized error structure
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the same error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError represents an error to be thrown as BPMN error
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables converts to BPMN error variables
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Pipeline errors
// ==========================

func NewIntentNotRecognizedError(text string) *StandardError {
	return newError(ErrCodeIntentNotRecognized, "Could not understand query", fmt.Sprintf("text length: %d", len(text)), false)
}

func NewPermissionDeniedError(intentType, role string) *StandardError {
	return newError(ErrCodePermissionDenied, "Permission denied for intent "+intentType, fmt.Sprintf("role: %s", role), false)
}

func NewEntityValidationFailedError(errs []string) *StandardError {
	return newError(ErrCodeEntityValidationFailed, "Failed to extract or validate entities", strings.Join(errs, "; "), false)
}

func NewOperationFailedError(message string) *StandardError {
	return newError(ErrCodeOperationFailed, message, "", false)
}

func NewServiceUnavailableError(service string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeServiceUnavailable, fmt.Sprintf("%s is unavailable", service), details, true)
}

// ==========================
// Postgres errors
// ==========================

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

// ==========================
// Ticket errors
// ==========================

func NewTicketNotFoundError(ticketID string) *StandardError {
	return newError(ErrCodeTicketNotFound, fmt.Sprintf("Ticket %s not found", ticketID), "", false).
		WithMetadata("ticketId", ticketID)
}

func NewTicketAlreadyRevokedError(ticketID string) *StandardError {
	return newError(ErrCodeTicketAlreadyRevoked, fmt.Sprintf("Ticket %s has already been revoked", ticketID), "", false).
		WithMetadata("ticketId", ticketID)
}

func NewTicketCreationFailedError(err error) *StandardError {
	return newError(ErrCodeTicketCreationFailed, "Failed to create ticket", err.Error(), true)
}

func NewTicketAccessForbiddenError(ticketID string) *StandardError {
	return newError(ErrCodeTicketAccessForbidden, fmt.Sprintf("You do not have access to ticket %s", ticketID), "", false).
		WithMetadata("ticketId", ticketID)
}

// ==========================
// Role directory errors
// ==========================

func NewRoleLookupFailedError(actorID string, err error) *StandardError {
	return newError(ErrCodeRoleLookupFailed, "Role lookup failed", err.Error(), true).
		WithMetadata("actorId", actorID)
}

func NewUserNotFoundError(actorID string) *StandardError {
	return newError(ErrCodeUserNotFound, "User not found", fmt.Sprintf("actorId: %s", actorID), false)
}

// ==========================
// Elasticsearch errors
// ==========================

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Search service unavailable", err.Error(), true)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Ticket search failed",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// ==========================
// Job errors
// ==========================

func NewInvalidJobInputError(details string) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Invalid job input", details, false)
}

// NewJobCompletionFailedError reports a complete-job command that could not
// be built or sent. The broker redelivers the job once it times out.
func NewJobCompletionFailedError(err error) *StandardError {
	return newError(ErrCodeJobCompletionFailed, "Failed to complete job", err.Error(), true)
}

// ==========================
// Helpers
// ==========================

// AsStandardError unwraps err to a *StandardError if one is in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// BPMNErrorMapping maps error codes to BPMN error codes
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidJobInput:               "NLP_INVALID_INPUT",
	ErrCodeDatabaseConnectionFailed:      "NLP_DATABASE_UNAVAILABLE",
	ErrCodeQueryExecutionFailed:          "NLP_DATABASE_UNAVAILABLE",
	ErrCodeQueryTimeout:                  "NLP_DATABASE_UNAVAILABLE",
	ErrCodeElasticsearchConnectionFailed: "NLP_SEARCH_UNAVAILABLE",
	ErrCodeSearchQueryFailed:             "NLP_SEARCH_UNAVAILABLE",
	ErrCodeRoleLookupFailed:              "NLP_ROLE_LOOKUP_FAILED",
	ErrCodeServiceUnavailable:            "NLP_SERVICE_UNAVAILABLE",
}

// GetRetryCount returns number of retries for a given error code
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeRoleLookupFailed,
		ErrCodeServiceUnavailable:
		return 3
	case ErrCodeQueryTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts StandardError to BPMNError
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code indicates a retryable error
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of an error code
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeIntentNotRecognized, ErrCodeEntityValidationFailed, ErrCodeOperationFailed, ErrCodeServiceUnavailable:
		return "PIPELINE"
	case ErrCodePermissionDenied, ErrCodeRoleLookupFailed, ErrCodeUserNotFound, ErrCodeTicketAccessForbidden:
		return "AUTH"
	}

	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "TICKET"):
		return "TICKET"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
