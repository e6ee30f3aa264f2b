package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Aldorax/soo-ade/internal/application/models"
	"github.com/Aldorax/soo-ade/pkg/platform/sentinel"
)

// Postgres persists applications in the applications table. All status
// transitions are single conditional UPDATEs so concurrent admin clicks
// cannot double-assign certificate numbers.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (id, user_id, state_of_origin, local_government, address,
			nationality, nin, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		app.ID, app.UserID, app.StateOfOrigin, app.LocalGovernment, app.Address,
		app.Nationality, app.NIN, app.Status, app.PaymentStatus, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

const selectApplication = `
	SELECT id, user_id, state_of_origin, local_government, address, nationality, nin,
		status, payment_status, certificate_number, rejection_reason, approved_at,
		created_at, updated_at
	FROM applications`

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return scanApplication(s.db.QueryRowContext(ctx, selectApplication+` WHERE id = $1`, id))
}

func (s *Postgres) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Application, error) {
	return scanApplication(s.db.QueryRowContext(ctx, selectApplication+` WHERE user_id = $1`, userID))
}

func (s *Postgres) FindByCertificateNumber(ctx context.Context, number string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		selectApplication+` WHERE certificate_number = $1 AND status = $2`,
		number, models.StatusApproved)
	return scanApplication(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, selectApplication+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplicationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// Approve performs the PENDING -> APPROVED transition as one conditional
// update, checking the affected-row count to discriminate a missing
// application from one already reviewed.
func (s *Postgres) Approve(ctx context.Context, id uuid.UUID, certificateNumber string, approvedAt time.Time) error {
	query := `
		UPDATE applications
		SET status = $1, certificate_number = $2, approved_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		models.StatusApproved, certificateNumber, approvedAt, id, models.StatusPending)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("approve application: %w", err)
	}
	return s.transitionOutcome(ctx, res, id)
}

// Reject performs the PENDING -> REJECTED transition as one conditional
// update.
func (s *Postgres) Reject(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	query := `
		UPDATE applications
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		models.StatusRejected, reason, at, id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("reject application: %w", err)
	}
	return s.transitionOutcome(ctx, res, id)
}

// MarkPaid flips payment_status UNPAID -> PAID. The WHERE clause makes the
// update idempotent; re-verifying a paid application changes nothing.
func (s *Postgres) MarkPaid(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE applications
		SET payment_status = $1, updated_at = now()
		WHERE id = $2 AND payment_status = $3
	`
	res, err := s.db.ExecContext(ctx, query, models.PaymentPaid, id, models.PaymentUnpaid)
	if err != nil {
		return fmt.Errorf("mark application paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark application paid: %w", err)
	}
	if affected == 0 {
		// Either already paid (fine) or missing.
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("mark application paid: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
	}
	return nil
}

func (s *Postgres) transitionOutcome(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition application: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("transition application: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row *sql.Row) (*models.Application, error) {
	app, err := scanFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func scanApplicationRows(rows *sql.Rows) (*models.Application, error) {
	return scanFrom(rows)
}

func scanFrom(row rowScanner) (*models.Application, error) {
	var (
		app        models.Application
		certNumber sql.NullString
		reason     sql.NullString
		approvedAt sql.NullTime
	)
	err := row.Scan(&app.ID, &app.UserID, &app.StateOfOrigin, &app.LocalGovernment,
		&app.Address, &app.Nationality, &app.NIN, &app.Status, &app.PaymentStatus,
		&certNumber, &reason, &approvedAt, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	app.CertificateNumber = certNumber.String
	app.RejectionReason = reason.String
	if approvedAt.Valid {
		t := approvedAt.Time
		app.ApprovedAt = &t
	}
	return &app, nil
}
