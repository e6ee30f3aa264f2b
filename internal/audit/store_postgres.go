package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, user_id, action, subject, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var userID any
	if event.UserID != uuid.Nil {
		userID = event.UserID
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), event.Timestamp, userID, event.Action, event.Subject, event.Reason, event.RequestID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Event, error) {
	query := `
		SELECT occurred_at, user_id, action, subject, reason, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var uid uuid.NullUUID
		if err := rows.Scan(&e.Timestamp, &uid, &e.Action, &e.Subject, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.UserID = uid.UUID
		out = append(out, e)
	}
	return out, rows.Err()
}
