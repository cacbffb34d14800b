// Package response renders dispatch results as natural-language replies.
package response

import (
	"fmt"
	"strings"

	"firefighter-nlp/internal/nlp/query"
)

type identifiable interface {
	Identifier() string
}

type template func(r query.Result) string

// Generator renders a query.Result with one template per result type.
type Generator struct {
	templates map[query.ResultType]template
}

func NewGenerator() *Generator {
	return &Generator{templates: map[query.ResultType]template{
		query.OperationResult: renderOperation,
		query.TicketList:      renderTicketList,
		query.Error:           renderError,
	}}
}

// Generate never fails. Unknown result types render the raw message.
func (g *Generator) Generate(r query.Result) string {
	tmpl, ok := g.templates[r.ResultType]
	if !ok {
		return r.Message
	}
	return tmpl(r)
}

func renderOperation(r query.Result) string {
	id := identifierOf(r.Payload)
	if id == "" || strings.Contains(r.Message, id) {
		return r.Message
	}
	return fmt.Sprintf("%s (ID: %s)", r.Message, id)
}

func identifierOf(payload interface{}) string {
	switch p := payload.(type) {
	case string:
		return p
	case identifiable:
		return p.Identifier()
	case fmt.Stringer:
		return p.String()
	}
	return ""
}

// renderTicketList expects Message to hold a plural noun phrase such as
// "pending tickets".
func renderTicketList(r query.Result) string {
	ids, _ := r.Payload.([]string)
	subject := r.Message
	if subject == "" {
		subject = "tickets"
	}

	switch len(ids) {
	case 0:
		return fmt.Sprintf("No %s found.", subject)
	case 1:
		return fmt.Sprintf("Found 1 %s: %s", singular(subject), ids[0])
	default:
		return fmt.Sprintf("Found %d %s: %s", len(ids), subject, strings.Join(ids, ", "))
	}
}

func singular(subject string) string {
	return strings.Replace(subject, "tickets", "ticket", 1)
}

func renderError(r query.Result) string {
	return r.Message
}
