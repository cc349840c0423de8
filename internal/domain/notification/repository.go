package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// CreateOnce inserts a lifecycle reminder unless one already exists for
	// the same subscriber, type and day. It reports whether a row was written.
	CreateOnce(ctx context.Context, n *Notification) (bool, error)
	ExistsSince(ctx context.Context, subscriberID uuid.UUID, notifType Type, since time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error)
	CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO notifications (id, user_id, subscriber_id, type, title, body, data, date_bucket)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb), $8)
		RETURNING created_at
	`, n.ID, n.UserID, n.SubscriberID, n.Type, n.Title, n.Body, n.Data, n.DateBucket).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert notification: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) CreateOnce(ctx context.Context, n *Notification) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, subscriber_id, type, title, body, data, date_bucket)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb), $8)
		ON CONFLICT (subscriber_id, type, date_bucket)
			WHERE type IN ('expiring_soon', 'expiring_today', 'expired')
		DO NOTHING
	`, n.ID, n.UserID, n.SubscriberID, n.Type, n.Title, n.Body, n.Data, n.DateBucket)
	if err != nil {
		return false, fmt.Errorf("%w: insert notification once: %v", ErrInternal, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: insert notification once: %v", ErrInternal, err)
	}
	return affected == 1, nil
}

func (r *repository) ExistsSince(ctx context.Context, subscriberID uuid.UUID, notifType Type, since time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE subscriber_id = $1 AND type = $2 AND created_at > $3
		)
	`, subscriberID, notifType, since)
	if err != nil {
		return false, fmt.Errorf("%w: check recent notification: %v", ErrInternal, err)
	}
	return exists, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notifications := []*Notification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrInternal, err)
	}
	return notifications, nil
}

func (r *repository) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %v", ErrInternal, err)
	}
	return count, nil
}

func (r *repository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("%w: mark read: %v", ErrInternal, err)
	}
	affected, _ := res.RowsAffected()
	return affected == 1, nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark all read: %v", ErrInternal, err)
	}
	return res.RowsAffected()
}

// DeleteOlderThan removes read notifications created before cutoff
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1 AND is_read`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: delete old notifications: %v", ErrInternal, err)
	}
	return res.RowsAffected()
}
