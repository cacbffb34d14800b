// Package query routes a classified intent to the ticket operation that
// serves it.
package query

import (
	apperrors "firefighter-nlp/internal/common/errors"
)

// ResultType selects the response template for a Result.
type ResultType string

const (
	OperationResult ResultType = "OPERATION_RESULT"
	TicketList      ResultType = "TICKET_LIST"
	Error           ResultType = "ERROR"
)

// Result is the outcome of one dispatched intent. A successful result always
// has a non-empty Message and a ResultType other than Error.
//
// For TicketList results Message names what was listed ("active tickets")
// and Payload is the []string of ticket ids. For OperationResult results
// Payload is the affected ticket id, a *models.Ticket, or nil.
type Result struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Payload    interface{}         `json:"payload,omitempty"`
	ResultType ResultType          `json:"resultType"`
	Code       apperrors.ErrorCode `json:"code,omitempty"`
}

// Failure builds a failed result carrying message verbatim.
func Failure(code apperrors.ErrorCode, message string) Result {
	return Result{Success: false, Message: message, ResultType: Error, Code: code}
}

// FailureFromError folds err into a failed result. StandardErrors keep their
// message; anything else is reported as an unavailable service.
func FailureFromError(service string, err error) Result {
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		return Failure(stdErr.Code, stdErr.Message)
	}
	unavailable := apperrors.NewServiceUnavailableError(service, err)
	return Failure(unavailable.Code, unavailable.Message)
}

// Operation builds a successful single-operation result.
func Operation(message string, payload interface{}) Result {
	return Result{Success: true, Message: message, Payload: payload, ResultType: OperationResult}
}

// List builds a successful listing result. subject is a plural noun phrase.
func List(subject string, ids []string) Result {
	if ids == nil {
		ids = []string{}
	}
	return Result{Success: true, Message: subject, Payload: ids, ResultType: TicketList}
}
