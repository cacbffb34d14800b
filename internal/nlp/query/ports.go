package query

import (
	"context"

	"firefighter-nlp/internal/models"
)

// TicketService is the ticket store the dispatcher reads and mutates.
// Expected domain conditions (not found, already revoked) come back as
// StandardErrors whose Message is shown to the user.
type TicketService interface {
	ListActiveTickets(ctx context.Context, actorID string) ([]string, error)
	ListAllTickets(ctx context.Context, filter models.TicketFilter) ([]string, error)
	ListTicketHistory(ctx context.Context, actorID string, filter models.TicketFilter) ([]string, error)
	GetTicketDetails(ctx context.Context, ticketID string) (*models.Ticket, error)
	CreateTicket(ctx context.Context, emergencyType, description, actorID string) (string, error)
	RevokeTicket(ctx context.Context, ticketID, actorID string) error
}

// TicketSearcher runs free-text ticket searches. all widens the search past
// the actor's own tickets.
type TicketSearcher interface {
	SearchTickets(ctx context.Context, term, actorID string, all bool) ([]string, error)
}
