// internal/tickets/service.go
package tickets

import (
	"context"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
)

// Service keeps the search index in step with the store. Index writes are
// best effort: a stale index never fails a ticket operation.
type Service struct {
	*Store
	index  *Index
	logger logger.Logger
}

func NewService(store *Store, index *Index, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{Store: store, index: index, logger: log}
}

func (s *Service) CreateTicket(ctx context.Context, emergencyType, description, actorID string) (string, error) {
	id, err := s.Store.CreateTicket(ctx, emergencyType, description, actorID)
	if err != nil {
		return "", err
	}
	s.reindex(ctx, id)
	return id, nil
}

func (s *Service) RevokeTicket(ctx context.Context, ticketID, actorID string) error {
	if err := s.Store.RevokeTicket(ctx, ticketID, actorID); err != nil {
		return err
	}
	s.reindex(ctx, ticketID)
	return nil
}

func (s *Service) SearchTickets(ctx context.Context, term, actorID string, all bool) ([]string, error) {
	if s.index == nil {
		return nil, apperrors.NewServiceUnavailableError("Ticket search", nil)
	}
	return s.index.SearchTickets(ctx, term, actorID, all)
}

func (s *Service) reindex(ctx context.Context, ticketID string) {
	if s.index == nil {
		return
	}
	var (
		t   *models.Ticket
		err error
	)
	if t, err = s.Store.GetTicketDetails(ctx, ticketID); err == nil {
		err = s.index.IndexTicket(ctx, t)
	}
	if err != nil {
		s.logger.Warn("ticket index not updated", map[string]interface{}{
			"ticketId": ticketID,
			"error":    err,
		})
	}
}
