package query

import (
	"context"
	"fmt"
	"strings"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/entity"
)

func (e *Env) tickets() (TicketService, error) {
	if e.Tickets == nil {
		return nil, apperrors.NewServiceUnavailableError("Ticket service", nil)
	}
	return e.Tickets, nil
}

// filterFrom reads the optional STATUS and DATE entities.
func filterFrom(env *Env, entities entity.Extracted) models.TicketFilter {
	var filter models.TicketFilter
	if s, ok := entities.First(entity.Status); ok {
		filter.Status = models.TicketStatus(s.Value)
	}
	if d, ok := entities.First(entity.Date); ok {
		if since, ok := ResolveDate(d.Value, env.Now()); ok {
			filter.Since = since
		}
	}
	return filter
}

func ShowActiveTickets(ctx context.Context, env *Env, req Request) (Result, error) {
	svc, err := env.tickets()
	if err != nil {
		return Result{}, err
	}
	ids, err := svc.ListActiveTickets(ctx, req.ActorID)
	if err != nil {
		return Result{}, err
	}
	return List("active tickets", ids), nil
}

func ShowTicketHistory(ctx context.Context, env *Env, req Request) (Result, error) {
	svc, err := env.tickets()
	if err != nil {
		return Result{}, err
	}
	filter := filterFrom(env, req.Entities)
	ids, err := svc.ListTicketHistory(ctx, req.ActorID, filter)
	if err != nil {
		return Result{}, err
	}
	subject := "tickets in your history"
	if filter.Status != "" {
		subject = fmt.Sprintf("%s tickets in your history", filter.Status)
	}
	return List(subject, ids), nil
}

// ShowAllTickets lists every requester's tickets for admins and only the
// actor's own otherwise. Without a STATUS entity it lists DefaultStatus.
func ShowAllTickets(ctx context.Context, env *Env, req Request) (Result, error) {
	svc, err := env.tickets()
	if err != nil {
		return Result{}, err
	}
	filter := filterFrom(env, req.Entities)
	if filter.Status == "" {
		filter.Status = env.DefaultStatus
	}
	if !req.IsAdmin {
		filter.RequesterID = req.ActorID
	}
	ids, err := svc.ListAllTickets(ctx, filter)
	if err != nil {
		return Result{}, err
	}
	return List(fmt.Sprintf("%s tickets", filter.Status), ids), nil
}

// visibleTicket loads a ticket and refuses it to non-admins who do not own it.
func visibleTicket(ctx context.Context, svc TicketService, id string, req Request) (*models.Ticket, error) {
	ticket, err := svc.GetTicketDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NewTicketNotFoundError(id)
	}
	if !req.IsAdmin && ticket.RequesterID != req.ActorID {
		return nil, apperrors.NewTicketAccessForbiddenError(ticket.ID)
	}
	return ticket, nil
}

func GetTicketDetails(ctx context.Context, env *Env, req Request) (Result, error) {
	svc, err := env.tickets()
	if err != nil {
		return Result{}, err
	}
	id, _ := req.Entities.First(entity.TicketID)
	ticket, err := visibleTicket(ctx, svc, id.Value, req)
	if err != nil {
		return Result{}, err
	}

	msg := fmt.Sprintf("Ticket %s is %s: %s emergency, %s", ticket.ID, ticket.Status, ticket.EmergencyType, ticket.Description)
	if ticket.Location != "" {
		msg += " at " + ticket.Location
	}
	return Operation(msg, ticket), nil
}

func CreateTicket(ctx context.Context, env *Env, req Request) (Result, error) {
	svc, err := env.tickets()
	if err != nil {
		return Result{}, err
	}
	types := entity.EmergencyTypesOutsideDescription(req.Entities)
	if len(types) == 0 {
		return Failure(apperrors.ErrCodeEntityValidationFailed, "Emergency type is required"), nil
	}
	desc, ok := req.Entities.First(entity.Description)
	if !ok {
		return Failure(apperrors.ErrCodeEntityValidationFailed, "Description is required"), nil
	}

	id, err := svc.CreateTicket(ctx, types[0], desc.Value, req.ActorID)
	if err != nil {
		return Result{}, err
	}
	msg := fmt.Sprintf("Emergency ticket %s has been created for %s emergency: %s", id, types[0], desc.Value)
	return Operation(msg, id), nil
}

func RevokeTicket(ctx context.Context, env *Env, req Request) (Result, error) {
	svc, err := env.tickets()
	if err != nil {
		return Result{}, err
	}
	id, _ := req.Entities.First(entity.TicketID)
	if !req.IsAdmin {
		if _, err := visibleTicket(ctx, svc, id.Value, req); err != nil {
			return Result{}, err
		}
	}
	if err := svc.RevokeTicket(ctx, id.Value, req.ActorID); err != nil {
		return Result{}, err
	}
	return Operation(fmt.Sprintf("Ticket %s has been revoked", id.Value), id.Value), nil
}

func SearchTickets(ctx context.Context, env *Env, req Request) (Result, error) {
	if env.Searcher == nil {
		return Result{}, apperrors.NewServiceUnavailableError("Ticket search", nil)
	}
	term, _ := req.Entities.First(entity.SearchTerm)
	ids, err := env.Searcher.SearchTickets(ctx, term.Value, req.ActorID, req.IsAdmin)
	if err != nil {
		return Result{}, err
	}
	return List(fmt.Sprintf("tickets matching '%s'", term.Value), ids), nil
}

var userHelp = []string{
	"show my active tickets",
	"show my ticket history",
	"show details for ticket TICKET-123",
	"create a fire emergency ticket for <description>",
	"find tickets about <topic>",
}

var adminHelp = []string{
	"show all pending tickets",
	"revoke ticket TICKET-123",
}

func GetHelp(_ context.Context, _ *Env, req Request) (Result, error) {
	examples := userHelp
	if req.IsAdmin {
		examples = append(append([]string{}, userHelp...), adminHelp...)
	}
	return Operation("You can ask me to: "+strings.Join(examples, "; "), nil), nil
}
