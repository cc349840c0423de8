package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clubebeneficios/clube-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

// Repository defines subscriber data access
type Repository interface {
	Create(ctx context.Context, s *Subscriber) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscriber, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscriber, error)
	UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error

	// ActivateTx starts or renews the plan. An ACTIVE subscription whose end
	// date is still ahead is extended from that end date.
	ActivateTx(ctx context.Context, tx *sqlx.Tx, id, planID uuid.UUID, now time.Time, durationDays int) (*Subscriber, error)
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error)

	// Sweep queries
	ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscriber, error)
	ListActiveEndedBefore(ctx context.Context, before time.Time) ([]Subscriber, error)
	Expire(ctx context.Context, id uuid.UUID, before time.Time) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates subscriber repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Subscriber) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO subscribers (id, user_id, name, tax_id, email, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING points, cashback, created_at, updated_at
	`, s.ID, s.UserID, s.Name, s.TaxID, s.Email, s.Phone, s.Status).
		Scan(&s.Points, &s.Cashback, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, "subscribers_tax_id_key"):
			return ErrTaxIDExists
		case database.IsUniqueViolation(err, "subscribers_user_id_key"):
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("%w: insert subscriber: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Subscriber, error) {
	return r.get(ctx, `SELECT * FROM subscribers WHERE id = $1`, id)
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscriber, error) {
	return r.get(ctx, `SELECT * FROM subscribers WHERE user_id = $1`, userID)
}

func (r *repository) get(ctx context.Context, query string, id uuid.UUID) (*Subscriber, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Subscriber
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get subscriber: %v", ErrInternal, err)
	}
	return &s, nil
}

func (r *repository) UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE subscribers SET push_token = NULLIF($2, ''), updated_at = NOW() WHERE id = $1
	`, id, token)
	if err != nil {
		return fmt.Errorf("%w: update push token: %v", ErrInternal, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

func (r *repository) ActivateTx(ctx context.Context, tx *sqlx.Tx, id, planID uuid.UUID, now time.Time, durationDays int) (*Subscriber, error) {
	var s Subscriber
	err := tx.GetContext(ctx, &s, `
		UPDATE subscribers SET
			plan_start_date = CASE WHEN status = 'ACTIVE' AND plan_end_date > $3 THEN plan_start_date ELSE $3 END,
			plan_end_date = CASE
				WHEN status = 'ACTIVE' AND plan_end_date > $3 THEN plan_end_date + make_interval(days => $4)
				ELSE $3::timestamptz + make_interval(days => $4)
			END,
			plan_id = $2,
			status = 'ACTIVE',
			updated_at = NOW()
		WHERE id = $1 AND status <> 'SUSPENDED'
		RETURNING *
	`, id, planID, now, durationDays)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM subscribers WHERE id = $1)`, id); err != nil {
			return nil, fmt.Errorf("%w: check subscriber: %v", ErrInternal, err)
		}
		if !exists {
			return nil, ErrSubscriberNotFound
		}
		return nil, ErrCannotActivate
	}
	if err != nil {
		return nil, fmt.Errorf("%w: activate subscriber: %v", ErrInternal, err)
	}
	return &s, nil
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(ctx, `
		UPDATE subscribers SET status = 'CANCELED', updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'ACTIVE')
	`, id)
}

// SetStatus applies an administrative transition:
//   - SUSPENDED from PENDING or ACTIVE
//   - CANCELED from anything but CANCELED
//   - ACTIVE only from SUSPENDED with a plan that has not ended
func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	var query string
	switch status {
	case StatusSuspended:
		query = `UPDATE subscribers SET status = 'SUSPENDED', updated_at = NOW() WHERE id = $1 AND status IN ('PENDING', 'ACTIVE')`
	case StatusCanceled:
		query = `UPDATE subscribers SET status = 'CANCELED', updated_at = NOW() WHERE id = $1 AND status <> 'CANCELED'`
	case StatusActive:
		query = `UPDATE subscribers SET status = 'ACTIVE', updated_at = NOW() WHERE id = $1 AND status = 'SUSPENDED' AND plan_end_date > NOW()`
	default:
		return false, ErrInvalidStatusTransition
	}
	return r.transition(ctx, query, id)
}

func (r *repository) transition(ctx context.Context, query string, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%w: update status: %v", ErrInternal, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	return n > 0, nil
}

func (r *repository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscriber, error) {
	return r.list(ctx, `
		SELECT * FROM subscribers
		WHERE status = 'ACTIVE' AND plan_end_date >= $1 AND plan_end_date < $2
		ORDER BY plan_end_date
	`, from, to)
}

func (r *repository) ListActiveEndedBefore(ctx context.Context, before time.Time) ([]Subscriber, error) {
	return r.list(ctx, `
		SELECT * FROM subscribers
		WHERE status = 'ACTIVE' AND plan_end_date < $1
		ORDER BY plan_end_date
	`, before)
}

func (r *repository) list(ctx context.Context, query string, args ...interface{}) ([]Subscriber, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var subs []Subscriber
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list subscribers: %v", ErrInternal, err)
	}
	return subs, nil
}

// Expire moves an ACTIVE subscriber whose plan ended before the given
// instant to EXPIRED. It returns false when another run got there first.
func (r *repository) Expire(ctx context.Context, id uuid.UUID, before time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE subscribers SET status = 'EXPIRED', updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE' AND plan_end_date < $2
	`, id, before)
	if err != nil {
		return false, fmt.Errorf("%w: expire subscriber: %v", ErrInternal, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	return n > 0, nil
}
