package services

import (
	"context"
	"fmt"
	"time"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/stream"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageStore is the slice of the message repository the service uses.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByCouple(ctx context.Context, coupleID string) ([]*models.Message, error)
}

// MessageService handles chat messages.
type MessageService struct {
	messages MessageStore
	couples  CoupleStore
	hub      *stream.Hub
	notifier *Notifier
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, couples CoupleStore, hub *stream.Hub, notifier *Notifier) *MessageService {
	return &MessageService{messages: messages, couples: couples, hub: hub, notifier: notifier}
}

// Send persists a message, streams it to both partners, and fans out a
// preview notification. The notification path can fail or be skipped without
// affecting the stored message.
func (s *MessageService) Send(ctx context.Context, sess *models.Session, text string) (*models.Message, error) {
	msg := &models.Message{
		ID:             uuid.New().String(),
		CoupleID:       sess.CoupleID,
		SenderNickname: sess.Nickname,
		Text:           text,
		CreatedAt:      time.Now(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.hub.Publish(msg.CoupleID, stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryMessage,
		Record:   msg,
	})

	couple, err := s.couples.GetByID(ctx, sess.CoupleID)
	if err != nil {
		log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Fan-out skipped, couple lookup failed")
		return msg, nil
	}
	s.notifier.Fanout(ctx, couple, sess.Role, sess.Nickname, "chat", ChatPreview(sess.Nickname, text))

	return msg, nil
}

// List returns the chat log in chronological order.
func (s *MessageService) List(ctx context.Context, coupleID string) ([]*models.Message, error) {
	return s.messages.ListByCouple(ctx, coupleID)
}
