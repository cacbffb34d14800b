package pipeline

import (
	"context"
	"time"

	"firefighter-nlp/internal/models"
	"firefighter-nlp/internal/nlp/entity"
	"firefighter-nlp/internal/nlp/intent"
	"firefighter-nlp/internal/nlp/query"

	"github.com/stretchr/testify/mock"
)

// ==========================
// Mock Stages
// ==========================

type MockGate struct {
	mock.Mock
}

func (m *MockGate) IsIntentAllowed(t intent.Type, role string) bool {
	return m.Called(t, role).Bool(0)
}

func (m *MockGate) Allowed(role string) []intent.Type {
	args := m.Called(role)
	return args.Get(0).([]intent.Type)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(text string) (entity.Extracted, error) {
	args := m.Called(text)
	return args.Get(0).(entity.Extracted), args.Error(1)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(entities entity.Extracted, in intent.Intent) entity.ValidationResult {
	return m.Called(entities, in).Get(0).(entity.ValidationResult)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Process(ctx context.Context, in intent.Intent, entities entity.Extracted, actorID string, isAdmin bool) query.Result {
	return m.Called(ctx, in, entities, actorID, isAdmin).Get(0).(query.Result)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(r query.Result) string {
	return m.Called(r).String(0)
}

type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) RoleOf(ctx context.Context, actorID string) (string, error) {
	args := m.Called(ctx, actorID)
	return args.String(0), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordQuery(path, outcome string, duration time.Duration) {
	m.Called(path, outcome, duration)
}

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
	return m.Called(ctx, ticketID, actorID).Error(0)
}
