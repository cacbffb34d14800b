package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/entity"
	"firefighter-nlp/internal/nlp/intent"
)

// Request is what a handler sees of one query.
type Request struct {
	Intent   intent.Intent
	Entities entity.Extracted
	ActorID  string
	// IsAdmin widens listings and lookups past the actor's own tickets. It
	// is never used to authorize.
	IsAdmin bool
}

// Env carries the collaborators handlers call into.
type Env struct {
	Tickets       TicketService
	Searcher      TicketSearcher
	DefaultStatus models.TicketStatus
	Now           func() time.Time
}

// HandlerFunc serves one intent. Collaborator errors are returned as-is and
// folded into a failed Result by the dispatcher.
type HandlerFunc func(ctx context.Context, env *Env, req Request) (Result, error)

// Registry is the static intent -> handler table.
var Registry = map[intent.Type]HandlerFunc{
	intent.ShowActiveTickets: ShowActiveTickets,
	intent.ShowTicketHistory: ShowTicketHistory,
	intent.ShowAllTickets:    ShowAllTickets,
	intent.GetTicketDetails:  GetTicketDetails,
	intent.CreateTicket:      CreateTicket,
	intent.RevokeTicket:      RevokeTicket,
	intent.SearchTickets:     SearchTickets,
	intent.GetHelp:           GetHelp,
}

type Config struct {
	DefaultAdminStatus models.TicketStatus
	Clock              func() time.Time
}

// Dispatcher routes intents through a handler table fixed at construction.
// It is safe for concurrent use.
type Dispatcher struct {
	handlers map[intent.Type]HandlerFunc
	env      *Env
	logger   logger.Logger
}

func NewDispatcher(config *Config, tickets TicketService, searcher TicketSearcher, log logger.Logger) *Dispatcher {
	return NewDispatcherWithHandlers(config, tickets, searcher, Registry, log)
}

// NewDispatcherWithHandlers copies handlers into the dispatcher's own table.
func NewDispatcherWithHandlers(config *Config, tickets TicketService, searcher TicketSearcher, handlers map[intent.Type]HandlerFunc, log logger.Logger) *Dispatcher {
	if config == nil {
		config = &Config{}
	}
	status := config.DefaultAdminStatus
	if !status.Valid() {
		status = models.TicketStatusPending
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	table := make(map[intent.Type]HandlerFunc, len(handlers))
	for t, h := range handlers {
		table[t] = h
	}

	return &Dispatcher{
		handlers: table,
		env: &Env{
			Tickets:       tickets,
			Searcher:      searcher,
			DefaultStatus: status,
			Now:           clock,
		},
		logger: log.With(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Process runs the handler for in.Type. It never panics and never returns
// an error: every failure comes back as a Result with Success false.
func (d *Dispatcher) Process(ctx context.Context, in intent.Intent, entities entity.Extracted, actorID string, isAdmin bool) (result Result) {
	handler, ok := d.handlers[in.Type]
	if !ok {
		return Failure(apperrors.ErrCodeOperationFailed, fmt.Sprintf("Unsupported intent %s", in.Type))
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", map[string]interface{}{
				"intent":  string(in.Type),
				"actorId": actorID,
				"panic":   fmt.Sprint(r),
			})
			result = FailureFromError("Ticket service", fmt.Errorf("panic: %v", r))
		}
	}()

	req := Request{Intent: in, Entities: entities, ActorID: actorID, IsAdmin: isAdmin}
	result, err := handler(ctx, d.env, req)
	if err != nil {
		d.logger.Warn("handler failed", map[string]interface{}{
			"intent":  string(in.Type),
			"actorId": actorID,
			"error":   err.Error(),
		})
		return FailureFromError("Ticket service", err)
	}

	if result.Success && (result.Message == "" || result.ResultType == Error) {
		return Failure(apperrors.ErrCodeOperationFailed, fmt.Sprintf("Operation %s returned no result", in.Type))
	}
	if !result.Success {
		result.ResultType = Error
		if result.Code == "" {
			result.Code = apperrors.ErrCodeOperationFailed
		}
	}
	return result
}

// Handles lists the intents with a registered handler, sorted.
func (d *Dispatcher) Handles() []intent.Type {
	out := make([]intent.Type, 0, len(d.handlers))
	for t := range d.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
