package services

import (
	"context"
	"time"

	"togethermiles-backend/internal/metrics"
	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/stream"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// previewLimit is the prefix length for chat message previews.
const previewLimit = 40

const defaultNotificationLimit = 20

// NotificationStore is the slice of the notification repository the notifier
// uses.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, coupleID, recipient string, limit int) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, coupleID, recipient string) ([]string, error)
}

// Notifier derives targeted notifications from shareable actions and fans
// them out: a stored row, a stream event, and (when configured) a push.
// Fan-out is never fatal to the action that triggered it.
type Notifier struct {
	notifications NotificationStore
	hub           *stream.Hub
	pusher        Pusher
}

// NewNotifier creates a notifier. pusher may be nil.
func NewNotifier(notifications NotificationStore, hub *stream.Hub, pusher Pusher) *Notifier {
	return &Notifier{notifications: notifications, hub: hub, pusher: pusher}
}

// Fanout emits a notification of the given type to the sender's partner.
// When the partner slot is still empty the notification is skipped silently:
// the action that triggered it has already succeeded.
func (n *Notifier) Fanout(ctx context.Context, couple *models.Couple, senderRole models.Role, senderNickname, notifType, message string) {
	recipient := couple.PartnerNicknameFor(senderRole)
	if recipient == "" {
		metrics.NotificationsFanout.WithLabelValues(notifType, "skipped").Inc()
		log.Debug().
			Str("couple_id", couple.ID).
			Str("type", notifType).
			Msg("Fan-out skipped, partner not joined")
		return
	}

	notification := &models.Notification{
		ID:                uuid.New().String(),
		CoupleID:          couple.ID,
		SenderNickname:    senderNickname,
		RecipientNickname: recipient,
		Type:              notifType,
		Message:           message,
		CreatedAt:         time.Now(),
	}

	if err := n.notifications.Create(ctx, notification); err != nil {
		metrics.NotificationsFanout.WithLabelValues(notifType, "error").Inc()
		log.Error().Err(err).
			Str("couple_id", couple.ID).
			Str("type", notifType).
			Msg("Failed to store notification")
		return
	}

	n.hub.Publish(couple.ID, stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryNotification,
		Record:   notification,
	})

	if n.pusher != nil {
		n.pusher.Push(ctx, couple.ID, recipient, message)
	}

	metrics.NotificationsFanout.WithLabelValues(notifType, "sent").Inc()
}

// List returns the recipient's recent notifications, newest first.
func (n *Notifier) List(ctx context.Context, coupleID, recipient string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultNotificationLimit
	}
	return n.notifications.ListByRecipient(ctx, coupleID, recipient, limit)
}

// MarkAllRead flips is_read on the recipient's unread notifications and
// returns the ids it touched; clients apply the flip optimistically before
// this returns.
func (n *Notifier) MarkAllRead(ctx context.Context, coupleID, recipient string) ([]string, error) {
	return n.notifications.MarkAllRead(ctx, coupleID, recipient)
}

// ChatPreview builds the standard chat fan-out message: sender plus a
// truncated prefix of the text.
func ChatPreview(senderNickname, text string) string {
	preview := text
	if len([]rune(preview)) > previewLimit {
		preview = string([]rune(preview)[:previewLimit]) + "..."
	}
	return senderNickname + ": " + preview + " 💬"
}
