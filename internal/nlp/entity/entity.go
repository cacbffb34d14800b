// Package entity extracts typed, positioned values from query text and
// checks them against the requirements of an intent.
package entity

import (
	"sort"
)

// Type identifies what an extracted value means.
type Type string

const (
	EmergencyType Type = "EMERGENCY_TYPE"
	Description   Type = "DESCRIPTION"
	Date          Type = "DATE"
	Status        Type = "STATUS"
	TicketID      Type = "TICKET_ID"
	Location      Type = "LOCATION"
	SearchTerm    Type = "SEARCH_TERM"
)

// Entity is a typed substring of the source text. SpanStart and SpanEnd are
// byte offsets with 0 <= SpanStart <= SpanEnd <= len(text). Value may be a
// normalized form of the text in the span.
type Entity struct {
	Type      Type   `json:"type"`
	Value     string `json:"value"`
	SpanStart int    `json:"spanStart"`
	SpanEnd   int    `json:"spanEnd"`
}

// Overlaps reports whether the spans of e and o intersect.
func (e Entity) Overlaps(o Entity) bool {
	return e.SpanStart < o.SpanEnd && o.SpanStart < e.SpanEnd
}

// Within reports whether e lies entirely inside o.
func (e Entity) Within(o Entity) bool {
	return e.SpanStart >= o.SpanStart && e.SpanEnd <= o.SpanEnd
}

// Extracted groups entities by type, each list in order of appearance.
// Types with no match are absent. It is read-only once built.
type Extracted struct {
	byType map[Type][]Entity
}

func newExtracted(found []Entity) Extracted {
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].SpanStart < found[j].SpanStart
	})
	byType := make(map[Type][]Entity)
	for _, e := range found {
		byType[e.Type] = append(byType[e.Type], e)
	}
	return Extracted{byType: byType}
}

// NewExtracted builds an Extracted from a flat entity list.
func NewExtracted(entities ...Entity) Extracted {
	found := make([]Entity, len(entities))
	copy(found, entities)
	return newExtracted(found)
}

// Get returns a copy of the entities of type t, or nil when there are none.
func (x Extracted) Get(t Type) []Entity {
	list, ok := x.byType[t]
	if !ok {
		return nil
	}
	out := make([]Entity, len(list))
	copy(out, list)
	return out
}

// First returns the earliest entity of type t.
func (x Extracted) First(t Type) (Entity, bool) {
	list := x.byType[t]
	if len(list) == 0 {
		return Entity{}, false
	}
	return list[0], true
}

func (x Extracted) Has(t Type) bool {
	_, ok := x.byType[t]
	return ok
}

// Values returns the distinct values of type t in order of first appearance.
func (x Extracted) Values(t Type) []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range x.byType[t] {
		if !seen[e.Value] {
			seen[e.Value] = true
			out = append(out, e.Value)
		}
	}
	return out
}

// Types returns the types present, sorted by name.
func (x Extracted) Types() []Type {
	out := make([]Type, 0, len(x.byType))
	for t := range x.byType {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len is the total number of entities.
func (x Extracted) Len() int {
	n := 0
	for _, list := range x.byType {
		n += len(list)
	}
	return n
}

// Summary maps each type to its values, for logging.
func (x Extracted) Summary() map[string][]string {
	out := make(map[string][]string, len(x.byType))
	for t, list := range x.byType {
		values := make([]string, len(list))
		for i, e := range list {
			values[i] = e.Value
		}
		out[string(t)] = values
	}
	return out
}
