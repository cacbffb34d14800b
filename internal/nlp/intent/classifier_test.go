package intent

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Recognition Tests
// ==========================

func TestClassifier_Recognize(t *testing.T) {
	c := NewClassifier(DefaultMinConfidence)

	tests := []struct {
		name string
		text string
		want Type
	}{
		{"create emergency ticket", "create a fire emergency ticket for building collapse", CreateTicket},
		{"open a new request", "Open a new request for flood access", CreateTicket},
		{"all tickets in system", "show all tickets in the system", ShowAllTickets},
		{"all pending tickets", "list all pending tickets", ShowAllTickets},
		{"active tickets", "show my active tickets", ShowActiveTickets},
		{"my tickets", "what are my tickets", ShowActiveTickets},
		{"all my tickets", "show all my tickets", ShowActiveTickets},
		{"all of my tickets", "list all of my tickets", ShowActiveTickets},
		{"all my tickets with status", "show all my pending tickets", ShowTicketHistory},
		{"all the tickets", "show all the tickets", ShowAllTickets},
		{"details by canonical id", "get TICKET-42", GetTicketDetails},
		{"details phrase", "details for ticket TICKET-7", GetTicketDetails},
		{"referenced id", "show tickets for invalid-ticket-id", GetTicketDetails},
		{"revoke", "revoke ticket TICKET-3", RevokeTicket},
		{"cancel access", "please cancel my access", RevokeTicket},
		{"history", "show my ticket history", ShowTicketHistory},
		{"completed tickets", "show completed tickets from last month", ShowTicketHistory},
		{"search", "find tickets about gas leak", SearchTickets},
		{"help", "help", GetHelp},
		{"what can I do", "What can I do here?", GetHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Recognize(tt.text)
			require.True(t, ok, "expected %q to be recognized", tt.text)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.text, got.SourceText)
			assert.GreaterOrEqual(t, got.Confidence, DefaultMinConfidence)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestClassifier_Unrecognized(t *testing.T) {
	c := NewClassifier(DefaultMinConfidence)

	for _, text := range []string{"", "   ", "the weather is nice", "asdfgh qwerty", "banana"} {
		_, ok := c.Recognize(text)
		assert.False(t, ok, "expected %q to be unrecognized", text)
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultMinConfidence)
	text := "create a fire emergency ticket for building collapse"

	first, ok := c.Recognize(text)
	require.True(t, ok)
	for i := 0; i < 20; i++ {
		again, ok := c.Recognize(text)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestClassifier_ThresholdFiltersWeakMatches(t *testing.T) {
	// a bare id only scores 0.6
	strict := NewClassifier(0.7)
	_, ok := strict.Recognize("TICKET-12")
	assert.False(t, ok)

	loose := NewClassifier(0.5)
	got, ok := loose.Recognize("TICKET-12")
	require.True(t, ok)
	assert.Equal(t, GetTicketDetails, got.Type)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
}

func TestClassifier_TiesKeepTableOrder(t *testing.T) {
	rules := []RuleSet{
		{ShowAllTickets, []Rule{{regexp.MustCompile(`tickets`), 0.8}}},
		{ShowActiveTickets, []Rule{{regexp.MustCompile(`tickets`), 0.8}}},
	}
	c := NewClassifierWithRules(rules, 0.5)

	got, ok := c.Recognize("tickets")
	require.True(t, ok)
	assert.Equal(t, ShowAllTickets, got.Type)
}

func TestClassifier_InvalidThresholdUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultMinConfidence, NewClassifier(0).MinConfidence())
	assert.Equal(t, DefaultMinConfidence, NewClassifier(1.5).MinConfidence())
	assert.Equal(t, 0.75, NewClassifier(0.75).MinConfidence())
}

// ==========================
// Type Tests
// ==========================

func TestParse(t *testing.T) {
	got, ok := Parse("show_all_tickets")
	assert.True(t, ok)
	assert.Equal(t, ShowAllTickets, got)

	_, ok = Parse("DELETE_EVERYTHING")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	types := All()
	require.Len(t, types, 8)
	types[0] = "MUTATED"
	assert.Equal(t, ShowActiveTickets, All()[0])
}
