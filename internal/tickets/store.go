// internal/tickets/store.go
package tickets

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"

	apperrors "firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/models"
)

const ticketColumns = `id, requester_id, emergency_type, description, location, status,
		       created_at, updated_at, revoked_by, revoked_at`

// Store is the Postgres-backed ticket service.
type Store struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "ticket-store"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source used for writes.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) ListActiveTickets(ctx context.Context, actorID string) ([]string, error) {
	return s.listIDs(ctx, "list_active", models.TicketFilter{
		RequesterID: actorID,
		Status:      models.TicketStatusActive,
	})
}

func (s *Store) ListAllTickets(ctx context.Context, filter models.TicketFilter) ([]string, error) {
	return s.listIDs(ctx, "list_all", filter)
}

// ListTicketHistory returns every ticket the actor ever raised, newest first.
func (s *Store) ListTicketHistory(ctx context.Context, actorID string, filter models.TicketFilter) ([]string, error) {
	filter.RequesterID = actorID
	return s.listIDs(ctx, "list_history", filter)
}

func (s *Store) GetTicketDetails(ctx context.Context, ticketID string) (*models.Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE id = $1`, ticketID)

	var (
		t         models.Ticket
		status    string
		location  sql.NullString
		revokedBy sql.NullString
		revokedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.RequesterID, &t.EmergencyType, &t.Description, &location, &status,
		&t.CreatedAt, &t.UpdatedAt, &revokedBy, &revokedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewTicketNotFoundError(ticketID)
	}
	if err != nil {
		return nil, s.wrap(ctx, "get_details", err)
	}

	t.Status = models.TicketStatus(status)
	t.Location = location.String
	t.RevokedBy = revokedBy.String
	if revokedAt.Valid {
		at := revokedAt.Time
		t.RevokedAt = &at
	}
	return &t, nil
}

// CreateTicket inserts a pending ticket and returns its id. Ids are
// TICKET- followed by the sequence value, zero-padded to at least 3 digits.
func (s *Store) CreateTicket(ctx context.Context, emergencyType, description, actorID string) (string, error) {
	now := s.now()

	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('ticket_id_seq')`).Scan(&seq); err != nil {
		return "", s.creationError(ctx, err)
	}
	id := FormatTicketID(seq)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, requester_id, emergency_type, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		id, actorID, emergencyType, description, string(models.TicketStatusPending), now,
	)
	if err != nil {
		return "", s.creationError(ctx, err)
	}

	s.logger.Info("ticket created", map[string]interface{}{
		"ticketId":      id,
		"emergencyType": emergencyType,
		"actorId":       actorID,
	})
	return id, nil
}

// FormatTicketID renders a sequence value as TICKET-001, TICKET-1000 etc.
func FormatTicketID(seq int64) string {
	return fmt.Sprintf("TICKET-%03d", seq)
}

func (s *Store) creationError(ctx context.Context, err error) error {
	wrapped := s.wrap(ctx, "create", err)
	if apperrors.HasCode(wrapped, apperrors.ErrCodeQueryExecutionFailed) {
		return apperrors.NewTicketCreationFailedError(err)
	}
	return wrapped
}

// RevokeTicket marks a ticket revoked. Revoking twice is an error.
func (s *Store) RevokeTicket(ctx context.Context, ticketID, actorID string) error {
	now := s.now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets
		SET status = $2, revoked_by = $3, revoked_at = $4, updated_at = $4
		WHERE id = $1 AND status <> $2`,
		ticketID, string(models.TicketStatusRevoked), actorID, now,
	)
	if err != nil {
		return s.wrap(ctx, "revoke", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return s.wrap(ctx, "revoke", err)
	}
	if affected > 0 {
		s.logger.Info("ticket revoked", map[string]interface{}{
			"ticketId": ticketID,
			"actorId":  actorID,
		})
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM tickets WHERE id = $1`, ticketID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewTicketNotFoundError(ticketID)
	}
	if err != nil {
		return s.wrap(ctx, "revoke", err)
	}
	return apperrors.NewTicketAlreadyRevokedError(ticketID)
}

func (s *Store) listIDs(ctx context.Context, queryType string, filter models.TicketFilter) ([]string, error) {
	query, args := buildListQuery(filter)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap(ctx, queryType, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, s.wrap(ctx, queryType, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(ctx, queryType, err)
	}

	s.logger.Debug("tickets listed", map[string]interface{}{
		"queryType":  queryType,
		"rowCount":   len(ids),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return ids, nil
}

// buildListQuery renders the WHERE clause for a filter with positional args.
func buildListQuery(filter models.TicketFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.RequesterID != "" {
		add("requester_id = $%d", filter.RequesterID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}

	query := "SELECT id FROM tickets"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	return query, args
}

// wrap converts a driver error into a StandardError.
func (s *Store) wrap(ctx context.Context, queryType string, err error) error {
	s.logger.Error("ticket query failed", map[string]interface{}{
		"queryType": queryType,
		"error":     err,
	})

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(queryType)
	}
	if isConnectionError(err) {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return apperrors.NewQueryExecutionFailedError(queryType, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 57P01..03: admin shutdown / cannot connect now
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	return false
}
