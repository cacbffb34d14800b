// Package permission holds the role to intent authorization table.
package permission

import (
	"fmt"
	"sort"

	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/intent"
)

// Gate answers whether a role may invoke an intent.
type Gate interface {
	IsIntentAllowed(t intent.Type, role string) bool
}

// Table is an immutable role -> allowed intents mapping. Roles missing from
// the table get the fallback set, which is the most restrictive one.
type Table struct {
	allowed  map[string]map[intent.Type]struct{}
	fallback map[intent.Type]struct{}
}

var userIntents = []intent.Type{
	intent.ShowActiveTickets,
	intent.ShowTicketHistory,
	intent.GetTicketDetails,
	intent.CreateTicket,
	intent.SearchTickets,
	intent.GetHelp,
}

// DefaultTable grants USER the self-service intents and ADMIN everything.
func DefaultTable() *Table {
	t, _ := NewTable(map[string][]intent.Type{
		models.RoleUser:  userIntents,
		models.RoleAdmin: intent.All(),
	})
	return t
}

// NewTable copies grants into a new Table. Role names are normalized. The
// fallback for unknown roles is the smallest set among the configured roles.
func NewTable(grants map[string][]intent.Type) (*Table, error) {
	t := &Table{allowed: make(map[string]map[intent.Type]struct{}, len(grants))}

	for role, types := range grants {
		set := make(map[intent.Type]struct{}, len(types))
		for _, it := range types {
			if !it.Valid() {
				return nil, fmt.Errorf("role %s: unknown intent %q", role, it)
			}
			set[it] = struct{}{}
		}
		t.allowed[models.NormalizeRole(role)] = set
	}

	t.fallback = map[intent.Type]struct{}{}
	roles := t.Roles()
	for i, role := range roles {
		if i == 0 || len(t.allowed[role]) < len(t.fallback) {
			t.fallback = t.allowed[role]
		}
	}
	return t, nil
}

// FromNames builds a Table from string intent names, as read from config.
func FromNames(grants map[string][]string) (*Table, error) {
	typed := make(map[string][]intent.Type, len(grants))
	for role, names := range grants {
		typed[role] = make([]intent.Type, 0, len(names))
		for _, name := range names {
			it, ok := intent.Parse(name)
			if !ok {
				return nil, fmt.Errorf("role %s: unknown intent %q", role, name)
			}
			typed[role] = append(typed[role], it)
		}
	}
	return NewTable(typed)
}

func (t *Table) IsIntentAllowed(it intent.Type, role string) bool {
	set, ok := t.allowed[models.NormalizeRole(role)]
	if !ok {
		set = t.fallback
	}
	_, allowed := set[it]
	return allowed
}

// Allowed lists the intents role may invoke, in intent declaration order.
func (t *Table) Allowed(role string) []intent.Type {
	out := []intent.Type{}
	for _, it := range intent.All() {
		if t.IsIntentAllowed(it, role) {
			out = append(out, it)
		}
	}
	return out
}

// Roles returns the configured role names, sorted.
func (t *Table) Roles() []string {
	roles := make([]string, 0, len(t.allowed))
	for role := range t.allowed {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
