package pipeline

import (
	"context"
	"errors"
	"testing"

	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/nlp/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetCapabilities(t *testing.T) {
	tests := []struct {
		name        string
		roles       RoleResolver
		available   bool
		isAdmin     bool
		accessLevel string
		contains    []string
		excludes    []string
	}{
		{
			name:        "admin",
			roles:       rolesReturning("ADMIN", nil),
			available:   true,
			isAdmin:     true,
			accessLevel: "full",
			contains:    []string{"Show all pending tickets", "Revoke ticket TICKET-123", "Show my active tickets"},
		},
		{
			name:        "user",
			roles:       rolesReturning("user", nil),
			available:   true,
			accessLevel: "standard",
			contains:    []string{"Show my active tickets", "Create a fire emergency ticket for building collapse"},
			excludes:    []string{"Show all pending tickets", "Revoke ticket TICKET-123"},
		},
		{
			name:        "unknown role gets restricted set",
			roles:       rolesReturning("CONTRACTOR", nil),
			available:   true,
			accessLevel: "restricted",
			contains:    []string{"Show my active tickets"},
			excludes:    []string{"Revoke ticket TICKET-123"},
		},
		{
			name:      "lookup failure",
			roles:     rolesReturning("", errors.New("database unreachable")),
			available: false,
		},
		{
			name:      "no resolver",
			roles:     nil,
			available: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(Dependencies{Roles: tt.roles, Logger: logger.NewTestLogger(t)})

			caps := o.GetCapabilities(context.Background(), "actor-1")

			assert.Equal(t, tt.available, caps.Available)
			assert.Equal(t, tt.isAdmin, caps.IsAdmin)
			assert.Equal(t, tt.accessLevel, caps.AccessLevel)
			assert.NotNil(t, caps.SuggestedQueries)
			for _, q := range tt.contains {
				assert.Contains(t, caps.SuggestedQueries, q)
			}
			for _, q := range tt.excludes {
				assert.NotContains(t, caps.SuggestedQueries, q)
			}
		})
	}
}

func TestGetCapabilities_RolePanicIsUnavailable(t *testing.T) {
	roles := new(MockRoles)
	roles.On("RoleOf", mock.Anything, "actor-1").Run(func(mock.Arguments) { panic("nil pool") })
	o := NewOrchestrator(Dependencies{Roles: roles})

	var caps Capabilities
	require.NotPanics(t, func() { caps = o.GetCapabilities(context.Background(), "actor-1") })
	assert.False(t, caps.Available)
}

func TestGetSuggestions(t *testing.T) {
	o := NewOrchestrator(Dependencies{Roles: rolesReturning("ADMIN", nil)})

	s := o.GetSuggestions(context.Background(), "admin-1")

	require.True(t, s.Available)
	assert.Equal(t, "ADMIN", s.UserRole)
	assert.Equal(t, "full", s.AccessLevel)
	assert.Len(t, s.SuggestedQueries, len(intent.All()))

	covered := map[intent.Type]bool{}
	for _, ex := range s.Examples {
		covered[ex.Intent] = true
		assert.NotEmpty(t, ex.Query)
		assert.NotEmpty(t, ex.Description)
	}
	assert.Len(t, covered, len(intent.All()))
}

func TestGetSuggestions_UsesInjectedTable(t *testing.T) {
	gate := new(MockGate)
	gate.On("Allowed", "USER").Return([]intent.Type{intent.GetHelp})
	o := NewOrchestrator(Dependencies{Roles: rolesReturning("USER", nil), Permissions: gate})

	s := o.GetSuggestions(context.Background(), "user-1")

	assert.Equal(t, []string{"What can I do?"}, s.SuggestedQueries)
	require.Len(t, s.Examples, 1)
	assert.Equal(t, intent.GetHelp, s.Examples[0].Intent)
}

func TestGetSuggestions_Unavailable(t *testing.T) {
	o := NewOrchestrator(Dependencies{Roles: rolesReturning("", errors.New("timeout"))})

	s := o.GetSuggestions(context.Background(), "user-1")

	assert.False(t, s.Available)
	assert.Empty(t, s.UserRole)
	assert.Empty(t, s.SuggestedQueries)
	assert.NotNil(t, s.Examples)
}
