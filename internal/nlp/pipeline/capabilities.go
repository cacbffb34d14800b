package pipeline

import (
	"context"
	"fmt"

	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/intent"
)

var examples = map[intent.Type][]Example{
	intent.ShowActiveTickets: {
		{intent.ShowActiveTickets, "Show my active tickets", "Lists your tickets that are still active"},
		{intent.ShowActiveTickets, "What are my open tickets?", "Same as above"},
	},
	intent.ShowTicketHistory: {
		{intent.ShowTicketHistory, "Show my ticket history", "Lists all of your past tickets"},
		{intent.ShowTicketHistory, "Show completed tickets from last month", "History filtered by status and date"},
	},
	intent.GetTicketDetails: {
		{intent.GetTicketDetails, "Show details for ticket TICKET-123", "Status, type and description of one ticket"},
	},
	intent.CreateTicket: {
		{intent.CreateTicket, "Create a fire emergency ticket for building collapse", "Opens a new emergency access ticket"},
		{intent.CreateTicket, "Open a new medical ticket for injured worker at building 4", "Emergency type plus description"},
	},
	intent.SearchTickets: {
		{intent.SearchTickets, "Find tickets about gas leak", "Full-text search over ticket descriptions"},
	},
	intent.GetHelp: {
		{intent.GetHelp, "What can I do?", "Lists the queries available to you"},
	},
	intent.ShowAllTickets: {
		{intent.ShowAllTickets, "Show all pending tickets", "Every requester's tickets with a given status"},
		{intent.ShowAllTickets, "Show all tickets in the system", "Defaults to pending tickets"},
	},
	intent.RevokeTicket: {
		{intent.RevokeTicket, "Revoke ticket TICKET-123", "Revokes the emergency access granted by a ticket"},
	},
}

func accessLevel(role string) string {
	switch role {
	case models.RoleAdmin:
		return "full"
	case models.RoleUser:
		return "standard"
	default:
		return "restricted"
	}
}

// lookupRole is the strict variant used by the read-only projections: any
// failure means the actor's capabilities are unknown.
func (o *Orchestrator) lookupRole(ctx context.Context, actorID string) (role string, err error) {
	if o.roles == nil {
		return "", fmt.Errorf("no role resolver configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("role lookup panicked: %v", r)
		}
	}()
	role, err = o.roles.RoleOf(ctx, actorID)
	if err != nil {
		return "", err
	}
	role = models.NormalizeRole(role)
	if role == "" {
		return "", fmt.Errorf("empty role for actor %s", actorID)
	}
	return role, nil
}

func (o *Orchestrator) examplesFor(role string) []Example {
	out := []Example{}
	for _, it := range o.permissions.Allowed(role) {
		out = append(out, examples[it]...)
	}
	return out
}

func suggestedQueries(exs []Example) []string {
	out := []string{}
	seen := map[intent.Type]bool{}
	for _, ex := range exs {
		if seen[ex.Intent] {
			continue
		}
		seen[ex.Intent] = true
		out = append(out, ex.Query)
	}
	return out
}

// GetCapabilities projects the actor's role onto the permission table.
func (o *Orchestrator) GetCapabilities(ctx context.Context, actorID string) Capabilities {
	role, err := o.lookupRole(ctx, actorID)
	if err != nil {
		o.logger.Warn("capabilities unavailable", map[string]interface{}{
			"actorId": actorID,
			"error":   err.Error(),
		})
		return Capabilities{Available: false, SuggestedQueries: []string{}}
	}

	return Capabilities{
		Available:        true,
		IsAdmin:          role == models.RoleAdmin,
		AccessLevel:      accessLevel(role),
		SuggestedQueries: suggestedQueries(o.examplesFor(role)),
	}
}

func (o *Orchestrator) GetSuggestions(ctx context.Context, actorID string) Suggestions {
	role, err := o.lookupRole(ctx, actorID)
	if err != nil {
		o.logger.Warn("suggestions unavailable", map[string]interface{}{
			"actorId": actorID,
			"error":   err.Error(),
		})
		return Suggestions{Available: false, SuggestedQueries: []string{}, Examples: []Example{}}
	}

	exs := o.examplesFor(role)
	return Suggestions{
		Available:        true,
		UserRole:         role,
		AccessLevel:      accessLevel(role),
		SuggestedQueries: suggestedQueries(exs),
		Examples:         exs,
	}
}
