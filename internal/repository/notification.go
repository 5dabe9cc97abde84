package repository

import (
	"context"
	"fmt"

	"togethermiles-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, couple_id, sender_nickname, recipient_nickname, type, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID, n.CoupleID, n.SenderNickname, n.RecipientNickname, n.Type, n.Message, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns a recipient's notifications newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, coupleID, recipient string, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, couple_id, sender_nickname, recipient_nickname, type, message, is_read, created_at
		FROM notifications
		WHERE couple_id = $1 AND recipient_nickname = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, coupleID, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID, &n.CoupleID, &n.SenderNickname, &n.RecipientNickname,
			&n.Type, &n.Message, &n.IsRead, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead flips is_read on every unread notification for one recipient
// and returns the ids it touched. Other recipients' rows are untouched.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, coupleID, recipient string) ([]string, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE couple_id = $1 AND recipient_nickname = $2 AND is_read = FALSE
		RETURNING id
	`
	rows, err := r.db.Query(ctx, query, coupleID, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan notification id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification ids: %w", err)
	}
	return ids, nil
}
