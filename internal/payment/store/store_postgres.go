package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Aldorax/soo-ade/internal/payment/models"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
)

// Postgres persists transactions in the transactions table. Settlement is a
// conditional UPDATE guarded on status = PENDING so a terminal status can
// never be overwritten.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, tx *models.Transaction) error {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("encode transaction metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (id, reference, amount, currency, status, user_id,
			application_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var appID any
	if tx.ApplicationID != uuid.Nil {
		appID = tx.ApplicationID
	}
	_, err = s.db.ExecContext(ctx, query,
		tx.ID, tx.Reference, tx.Amount, tx.Currency, tx.Status, tx.UserID,
		appID, metadata, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

const selectTransaction = `
	SELECT id, reference, amount, currency, status, user_id, application_id,
		metadata, created_at, updated_at
	FROM transactions`

func (s *Postgres) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, selectTransaction+` WHERE reference = $1`, reference)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return tx, nil
}

// MarkIfPending settles a pending transaction. A zero affected-row count on
// an existing row means the transaction already settled.
func (s *Postgres) MarkIfPending(ctx context.Context, reference string, status models.Status) error {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = now()
		WHERE reference = $2 AND status = $3
	`
	res, err := s.db.ExecContext(ctx, query, status, reference, models.StatusPending)
	if err != nil {
		return fmt.Errorf("settle transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle transaction: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE reference = $1)`, reference).Scan(&exists); err != nil {
		return fmt.Errorf("settle transaction: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	return s.list(ctx, selectTransaction+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *Postgres) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	return s.list(ctx, selectTransaction+` ORDER BY created_at DESC`)
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status) ([]*models.Transaction, error) {
	return s.list(ctx, selectTransaction+` WHERE status = $1 ORDER BY created_at DESC`, status)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx       models.Transaction
		appID    uuid.NullUUID
		metadata []byte
	)
	err := row.Scan(&tx.ID, &tx.Reference, &tx.Amount, &tx.Currency, &tx.Status,
		&tx.UserID, &appID, &metadata, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	tx.ApplicationID = appID.UUID
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("decode transaction metadata: %w", err)
		}
	}
	return &tx, nil
}
