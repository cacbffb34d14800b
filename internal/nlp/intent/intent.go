// Package intent classifies free-text ticket queries into a fixed set of
// intent types using weighted pattern rules.
package intent

import "strings"

// Type is the discrete operation a query asks for.
type Type string

const (
	ShowActiveTickets Type = "SHOW_ACTIVE_TICKETS"
	ShowTicketHistory Type = "SHOW_TICKET_HISTORY"
	ShowAllTickets    Type = "SHOW_ALL_TICKETS"
	GetTicketDetails  Type = "GET_TICKET_DETAILS"
	CreateTicket      Type = "CREATE_TICKET"
	RevokeTicket      Type = "REVOKE_TICKET"
	SearchTickets     Type = "SEARCH_TICKETS"
	GetHelp           Type = "GET_HELP"
)

var allTypes = []Type{
	ShowActiveTickets,
	ShowTicketHistory,
	ShowAllTickets,
	GetTicketDetails,
	CreateTicket,
	RevokeTicket,
	SearchTickets,
	GetHelp,
}

// All returns every known intent type in declaration order.
func All() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

func (t Type) String() string { return string(t) }

// Valid reports whether t is a known intent type.
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Parse converts a name such as "show_all_tickets" to a Type.
func Parse(name string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(name)))
	return t, t.Valid()
}

// Intent is the classifier's verdict for one query.
type Intent struct {
	Type       Type    `json:"type"`
	Confidence float64 `json:"confidence"`
	SourceText string  `json:"sourceText"`
}
