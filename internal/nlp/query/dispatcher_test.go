package query

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/entity"
	"firefighter-nlp/internal/nlp/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Collaborators
// ==========================

type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) ListActiveTickets(ctx context.Context, actorID string) ([]string, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTicketService) ListAllTickets(ctx context.Context, filter models.TicketFilter) ([]string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTicketService) ListTicketHistory(ctx context.Context, actorID string, filter models.TicketFilter) ([]string, error) {
	args := m.Called(ctx, actorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTicketService) GetTicketDetails(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketService) CreateTicket(ctx context.Context, emergencyType, description, actorID string) (string, error) {
	args := m.Called(ctx, emergencyType, description, actorID)
	return args.String(0), args.Error(1)
}

func (m *MockTicketService) RevokeTicket(ctx context.Context, ticketID, actorID string) error {
	args := m.Called(ctx, ticketID, actorID)
	return args.Error(0)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) SearchTickets(ctx context.Context, term, actorID string, all bool) ([]string, error) {
	args := m.Called(ctx, term, actorID, all)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC) // a Wednesday

func createTestDispatcher(t *testing.T, tickets TicketService, searcher TicketSearcher) *Dispatcher {
	cfg := &Config{
		DefaultAdminStatus: models.TicketStatusPending,
		Clock:              func() time.Time { return fixedNow },
	}
	return NewDispatcher(cfg, tickets, searcher, logger.NewTestLogger(t))
}

func extract(t *testing.T, text string) entity.Extracted {
	t.Helper()
	x, err := entity.NewExtractor().Extract(text)
	require.NoError(t, err)
	return x
}

func intentOf(t intent.Type) intent.Intent {
	return intent.Intent{Type: t, Confidence: 0.9}
}

// ==========================
// Registry Tests
// ==========================

func TestRegistry_CoversEveryIntent(t *testing.T) {
	for _, it := range intent.All() {
		_, ok := Registry[it]
		assert.True(t, ok, "no handler for %s", it)
	}
	d := createTestDispatcher(t, nil, nil)
	assert.Len(t, d.Handles(), len(intent.All()))
}

func TestDispatcher_UnknownIntent(t *testing.T) {
	d := NewDispatcherWithHandlers(nil, nil, nil, map[intent.Type]HandlerFunc{}, nil)
	res := d.Process(context.Background(), intentOf(intent.GetHelp), entity.Extracted{}, "user-1", false)
	assert.False(t, res.Success)
	assert.Equal(t, Error, res.ResultType)
	assert.Equal(t, "Unsupported intent GET_HELP", res.Message)
}

// ==========================
// Handler Tests
// ==========================

func TestDispatcher_CreateTicket(t *testing.T) {
	svc := new(MockTicketService)
	svc.On("CreateTicket", mock.Anything, "fire", "building collapse", "user-1").Return("TICKET-001", nil)
	d := createTestDispatcher(t, svc, nil)

	res := d.Process(context.Background(), intentOf(intent.CreateTicket),
		extract(t, "create a fire emergency ticket for building collapse"), "user-1", false)

	require.True(t, res.Success)
	assert.Equal(t, OperationResult, res.ResultType)
	assert.Equal(t, "Emergency ticket TICKET-001 has been created for fire emergency: building collapse", res.Message)
	assert.Equal(t, "TICKET-001", res.Payload)
	svc.AssertExpectations(t)
}

func TestDispatcher_ShowAllTickets(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		isAdmin    bool
		wantFilter models.TicketFilter
		subject    string
	}{
		{
			name:       "admin defaults to pending across requesters",
			text:       "show all tickets in the system",
			isAdmin:    true,
			wantFilter: models.TicketFilter{Status: models.TicketStatusPending},
			subject:    "pending tickets",
		},
		{
			name:       "non-admin is scoped to own tickets",
			text:       "show all tickets in the system",
			isAdmin:    false,
			wantFilter: models.TicketFilter{Status: models.TicketStatusPending, RequesterID: "user-1"},
			subject:    "pending tickets",
		},
		{
			name:       "explicit status and relative date",
			text:       "show all closed tickets from last week",
			isAdmin:    true,
			wantFilter: models.TicketFilter{Status: models.TicketStatusClosed, Since: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
			subject:    "closed tickets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTicketService)
			ids := []string{"TICKET-001", "TICKET-003", "TICKET-005"}
			svc.On("ListAllTickets", mock.Anything, tt.wantFilter).Return(ids, nil)
			d := createTestDispatcher(t, svc, nil)

			res := d.Process(context.Background(), intentOf(intent.ShowAllTickets), extract(t, tt.text), "user-1", tt.isAdmin)

			require.True(t, res.Success)
			assert.Equal(t, TicketList, res.ResultType)
			assert.Equal(t, tt.subject, res.Message)
			assert.Equal(t, ids, res.Payload)
			svc.AssertExpectations(t)
		})
	}
}

func TestDispatcher_ShowActiveAndHistory(t *testing.T) {
	svc := new(MockTicketService)
	svc.On("ListActiveTickets", mock.Anything, "user-1").Return(nil, nil)
	svc.On("ListTicketHistory", mock.Anything, "user-1",
		models.TicketFilter{Status: models.TicketStatusCompleted, Since: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}).
		Return([]string{"TICKET-9"}, nil)
	d := createTestDispatcher(t, svc, nil)

	res := d.Process(context.Background(), intentOf(intent.ShowActiveTickets), extract(t, "show my active tickets"), "user-1", false)
	require.True(t, res.Success)
	assert.Equal(t, "active tickets", res.Message)
	assert.Equal(t, []string{}, res.Payload)

	res = d.Process(context.Background(), intentOf(intent.ShowTicketHistory),
		extract(t, "show completed tickets since 2024-01-02"), "user-1", false)
	require.True(t, res.Success)
	assert.Equal(t, "completed tickets in your history", res.Message)
	assert.Equal(t, []string{"TICKET-9"}, res.Payload)
	svc.AssertExpectations(t)
}

func TestDispatcher_GetTicketDetails(t *testing.T) {
	ticket := &models.Ticket{
		ID:            "TICKET-42",
		RequesterID:   "user-1",
		EmergencyType: "flood",
		Description:   "basement flooding",
		Location:      "Building 4",
		Status:        models.TicketStatusActive,
	}

	t.Run("owner sees details", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-42").Return(ticket, nil)
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.GetTicketDetails), extract(t, "details for ticket TICKET-42"), "user-1", false)
		require.True(t, res.Success)
		assert.Equal(t, "Ticket TICKET-42 is active: flood emergency, basement flooding at Building 4", res.Message)
		assert.Same(t, ticket, res.Payload)
	})

	t.Run("other user is refused", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-42").Return(ticket, nil)
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.GetTicketDetails), extract(t, "details for ticket TICKET-42"), "user-2", false)
		assert.False(t, res.Success)
		assert.Equal(t, "You do not have access to ticket TICKET-42", res.Message)
		assert.Equal(t, apperrors.ErrCodeTicketAccessForbidden, res.Code)
	})

	t.Run("admin sees any ticket", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-42").Return(ticket, nil)
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.GetTicketDetails), extract(t, "details for ticket TICKET-42"), "admin-1", true)
		assert.True(t, res.Success)
	})

	t.Run("not found is a domain failure", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-7").Return(nil, apperrors.NewTicketNotFoundError("TICKET-7"))
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.GetTicketDetails), extract(t, "show TICKET-7"), "user-1", false)
		assert.False(t, res.Success)
		assert.Equal(t, Error, res.ResultType)
		assert.Equal(t, "Ticket TICKET-7 not found", res.Message)
	})
}

func TestDispatcher_RevokeTicket(t *testing.T) {
	svc := new(MockTicketService)
	svc.On("RevokeTicket", mock.Anything, "TICKET-3", "admin-1").Return(nil).Once()
	svc.On("RevokeTicket", mock.Anything, "TICKET-3", "admin-1").Return(apperrors.NewTicketAlreadyRevokedError("TICKET-3")).Once()
	d := createTestDispatcher(t, svc, nil)
	entities := extract(t, "revoke ticket TICKET-3")

	res := d.Process(context.Background(), intentOf(intent.RevokeTicket), entities, "admin-1", true)
	require.True(t, res.Success)
	assert.Equal(t, "Ticket TICKET-3 has been revoked", res.Message)
	assert.Equal(t, "TICKET-3", res.Payload)

	res = d.Process(context.Background(), intentOf(intent.RevokeTicket), entities, "admin-1", true)
	assert.False(t, res.Success)
	assert.Equal(t, "Ticket TICKET-3 has already been revoked", res.Message)
	svc.AssertExpectations(t)
}

func TestDispatcher_RevokeTicket_NonAdminScopedToOwnTickets(t *testing.T) {
	ticket := &models.Ticket{ID: "TICKET-3", RequesterID: "user-1", Status: models.TicketStatusActive}
	entities := extract(t, "revoke ticket TICKET-3")

	t.Run("other user's ticket is refused", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-3").Return(ticket, nil)
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.RevokeTicket), entities, "user-2", false)

		assert.False(t, res.Success)
		assert.Equal(t, apperrors.ErrCodeTicketAccessForbidden, res.Code)
		svc.AssertNotCalled(t, "RevokeTicket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owner may revoke", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-3").Return(ticket, nil)
		svc.On("RevokeTicket", mock.Anything, "TICKET-3", "user-1").Return(nil)
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.RevokeTicket), entities, "user-1", false)

		assert.True(t, res.Success)
		svc.AssertExpectations(t)
	})

	t.Run("missing ticket", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("GetTicketDetails", mock.Anything, "TICKET-3").Return(nil, apperrors.NewTicketNotFoundError("TICKET-3"))
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.RevokeTicket), entities, "user-2", false)

		assert.Equal(t, "Ticket TICKET-3 not found", res.Message)
		svc.AssertNotCalled(t, "RevokeTicket", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDispatcher_SearchTickets(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("SearchTickets", mock.Anything, "gas leak", "user-1", false).Return([]string{"TICKET-8"}, nil)
	d := createTestDispatcher(t, new(MockTicketService), searcher)

	res := d.Process(context.Background(), intentOf(intent.SearchTickets), extract(t, "find tickets about gas leak"), "user-1", false)
	require.True(t, res.Success)
	assert.Equal(t, "tickets matching 'gas leak'", res.Message)
	assert.Equal(t, []string{"TICKET-8"}, res.Payload)

	noSearch := createTestDispatcher(t, new(MockTicketService), nil)
	res = noSearch.Process(context.Background(), intentOf(intent.SearchTickets), extract(t, "find tickets about gas leak"), "user-1", false)
	assert.False(t, res.Success)
	assert.Equal(t, "Ticket search is unavailable", res.Message)
}

func TestDispatcher_GetHelpNeedsNoCollaborator(t *testing.T) {
	d := createTestDispatcher(t, nil, nil)

	res := d.Process(context.Background(), intentOf(intent.GetHelp), entity.Extracted{}, "user-1", false)
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "show my active tickets")
	assert.NotContains(t, res.Message, "revoke")

	res = d.Process(context.Background(), intentOf(intent.GetHelp), entity.Extracted{}, "admin-1", true)
	assert.Contains(t, res.Message, "revoke ticket")
}

// ==========================
// Failure Folding Tests
// ==========================

func TestDispatcher_CollaboratorFailures(t *testing.T) {
	t.Run("standard error message surfaces verbatim", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("ListActiveTickets", mock.Anything, "user-1").
			Return(nil, apperrors.NewDatabaseConnectionFailedError(errors.New("dial tcp: refused")))
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.ShowActiveTickets), entity.Extracted{}, "user-1", false)
		assert.False(t, res.Success)
		assert.Equal(t, Error, res.ResultType)
		assert.Equal(t, "Database connection failed", res.Message)
		assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, res.Code)
	})

	t.Run("plain error becomes service unavailable", func(t *testing.T) {
		svc := new(MockTicketService)
		svc.On("ListActiveTickets", mock.Anything, "user-1").Return(nil, errors.New("boom"))
		d := createTestDispatcher(t, svc, nil)

		res := d.Process(context.Background(), intentOf(intent.ShowActiveTickets), entity.Extracted{}, "user-1", false)
		assert.False(t, res.Success)
		assert.Equal(t, "Ticket service is unavailable", res.Message)
		assert.Equal(t, apperrors.ErrCodeServiceUnavailable, res.Code)
	})

	t.Run("missing ticket service", func(t *testing.T) {
		d := createTestDispatcher(t, nil, nil)
		res := d.Process(context.Background(), intentOf(intent.ShowActiveTickets), entity.Extracted{}, "user-1", false)
		assert.False(t, res.Success)
		assert.Equal(t, "Ticket service is unavailable", res.Message)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		handlers := map[intent.Type]HandlerFunc{
			intent.GetHelp: func(context.Context, *Env, Request) (Result, error) { panic("nil map write") },
		}
		d := NewDispatcherWithHandlers(nil, nil, nil, handlers, logger.NewTestLogger(t))

		var res Result
		assert.NotPanics(t, func() {
			res = d.Process(context.Background(), intentOf(intent.GetHelp), entity.Extracted{}, "user-1", false)
		})
		assert.False(t, res.Success)
		assert.Equal(t, Error, res.ResultType)
		assert.Equal(t, apperrors.ErrCodeServiceUnavailable, res.Code)
	})

	t.Run("empty success is rejected", func(t *testing.T) {
		handlers := map[intent.Type]HandlerFunc{
			intent.GetHelp: func(context.Context, *Env, Request) (Result, error) { return Result{Success: true}, nil },
		}
		d := NewDispatcherWithHandlers(nil, nil, nil, handlers, nil)

		res := d.Process(context.Background(), intentOf(intent.GetHelp), entity.Extracted{}, "user-1", false)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Message)
	})
}

// ==========================
// Date Resolution Tests
// ==========================

func TestResolveDate(t *testing.T) {
	tests := map[string]time.Time{
		"today":      time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		"yesterday":  time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		"this week":  time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		"last week":  time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		"this month": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"last month": time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"2023-12-25": time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
	}
	for value, want := range tests {
		got, ok := ResolveDate(value, fixedNow)
		require.True(t, ok, value)
		assert.True(t, want.Equal(got), "%s: want %s got %s", value, want, got)
	}

	_, ok := ResolveDate("someday", fixedNow)
	assert.False(t, ok)
}
