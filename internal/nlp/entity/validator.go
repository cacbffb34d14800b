package entity

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"firefighter-nlp/internal/nlp/intent"
)

const (
	MinDescriptionLength = 3
	MaxDescriptionLength = 500
)

var ticketIDFormat = regexp.MustCompile(`^TICKET-\d+$`)

// ValidationResult lists every violated rule. Valid is true iff Errors is
// empty.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Validator checks extracted entities against intent requirements.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs the intent's rules and then the rules shared by all intents,
// collecting every error.
func (v *Validator) Validate(entities Extracted, in intent.Intent) ValidationResult {
	var errs []string

	switch in.Type {
	case intent.CreateTicket:
		errs = append(errs, validateCreate(entities)...)
	case intent.GetTicketDetails, intent.RevokeTicket:
		errs = append(errs, validateTicketID(entities)...)
	case intent.SearchTickets:
		if !entities.Has(SearchTerm) {
			errs = append(errs, "Search term is required")
		}
	}

	errs = append(errs, validateDates(entities)...)
	if statuses := statusesOutsideDescription(entities); len(statuses) > 1 {
		errs = append(errs, fmt.Sprintf("Only one status filter is allowed, got: %s", strings.Join(statuses, ", ")))
	}

	return newResult(errs)
}

func validateCreate(entities Extracted) []string {
	var errs []string

	types := EmergencyTypesOutsideDescription(entities)
	switch {
	case len(types) == 0:
		errs = append(errs, "Emergency type is required")
	case len(types) > 1:
		errs = append(errs, fmt.Sprintf("Multiple emergency types specified: %s", strings.Join(types, ", ")))
	}

	desc, ok := entities.First(Description)
	length := utf8.RuneCountInString(desc.Value)
	switch {
	case !ok:
		errs = append(errs, "Description is required")
	case length < MinDescriptionLength:
		errs = append(errs, fmt.Sprintf("Description must be at least %d characters", MinDescriptionLength))
	case length > MaxDescriptionLength:
		errs = append(errs, fmt.Sprintf("Description must not exceed %d characters", MaxDescriptionLength))
	}
	return errs
}

// statusesOutsideDescription drops status words that are part of the ticket
// description, as in "smoke in closed stairwell".
func statusesOutsideDescription(entities Extracted) []string {
	desc, hasDesc := entities.First(Description)
	var out []string
	for _, e := range entities.Get(Status) {
		if hasDesc && e.Within(desc) {
			continue
		}
		out = append(out, e.Value)
	}
	return out
}

func validateTicketID(entities Extracted) []string {
	ids := entities.Values(TicketID)
	if len(ids) == 0 {
		return []string{"Ticket ID is required"}
	}

	var errs []string
	if len(ids) > 1 {
		errs = append(errs, fmt.Sprintf("Exactly one ticket ID is required, got %d", len(ids)))
	}
	for _, id := range ids {
		if !ticketIDFormat.MatchString(id) {
			errs = append(errs, "Invalid ticket ID format")
			break
		}
	}
	return errs
}

func validateDates(entities Extracted) []string {
	var errs []string
	for _, d := range entities.Get(Date) {
		if !isoDatePattern.MatchString(d.Value) {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.Value); err != nil {
			errs = append(errs, fmt.Sprintf("Invalid date: %s", d.Value))
		}
	}
	return errs
}

// EmergencyTypesOutsideDescription returns the distinct emergency types that
// are not part of the ticket description, so "flood ticket for fire damage"
// reads as a flood. When every mention is inside the description, those
// mentions are used instead.
func EmergencyTypesOutsideDescription(entities Extracted) []string {
	desc, hasDesc := entities.First(Description)

	var outside []Entity
	for _, e := range entities.Get(EmergencyType) {
		if hasDesc && e.Within(desc) {
			continue
		}
		outside = append(outside, e)
	}
	if len(outside) == 0 {
		return entities.Values(EmergencyType)
	}

	var out []string
	seen := map[string]bool{}
	for _, e := range outside {
		if !seen[e.Value] {
			seen[e.Value] = true
			out = append(out, e.Value)
		}
	}
	return out
}
