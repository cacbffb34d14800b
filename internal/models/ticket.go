// internal/models/ticket.go
package models

import "time"

type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusActive    TicketStatus = "active"
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusClosed    TicketStatus = "closed"
	TicketStatusRejected  TicketStatus = "rejected"
	TicketStatusRevoked   TicketStatus = "revoked"
	TicketStatusExpired   TicketStatus = "expired"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusActive, TicketStatusCompleted, TicketStatusClosed,
		TicketStatusRejected, TicketStatusRevoked, TicketStatusExpired:
		return true
	}
	return false
}

// Ticket is an emergency-access ticket.
type Ticket struct {
	ID            string       `json:"id"`
	RequesterID   string       `json:"requesterId"`
	EmergencyType string       `json:"emergencyType"`
	Description   string       `json:"description"`
	Location      string       `json:"location,omitempty"`
	Status        TicketStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	RevokedBy     string       `json:"revokedBy,omitempty"`
	RevokedAt     *time.Time   `json:"revokedAt,omitempty"`
}

// Identifier returns the ticket id.
func (t *Ticket) Identifier() string {
	if t == nil {
		return ""
	}
	return t.ID
}

// TicketFilter narrows ticket listings. Zero values mean "no constraint".
type TicketFilter struct {
	Status      TicketStatus `json:"status,omitempty"`
	Since       time.Time    `json:"since,omitempty"`
	RequesterID string       `json:"requesterId,omitempty"`
}
