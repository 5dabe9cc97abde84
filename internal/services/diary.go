package services

import (
	"context"
	"fmt"
	"time"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/stream"

	"github.com/google/uuid"
)

// DiaryStore is the slice of the diary repository the service uses.
type DiaryStore interface {
	Create(ctx context.Context, e *models.DiaryEntry) error
	ListVisible(ctx context.Context, coupleID, viewerNickname string) ([]*models.DiaryEntry, error)
	Delete(ctx context.Context, id, ownerNickname string) error
}

// DiaryService handles diary entries.
type DiaryService struct {
	diary DiaryStore
	hub   *stream.Hub
}

// NewDiaryService creates a new diary service
func NewDiaryService(diary DiaryStore, hub *stream.Hub) *DiaryService {
	return &DiaryService{diary: diary, hub: hub}
}

// Create writes a new entry and streams it. Private entries still stream —
// the reconciler on the partner's side filters them out by visibility.
func (s *DiaryService) Create(ctx context.Context, sess *models.Session, title, content string, visibility models.Visibility) (*models.DiaryEntry, error) {
	entry := &models.DiaryEntry{
		ID:         uuid.New().String(),
		CoupleID:   sess.CoupleID,
		Title:      title,
		Content:    content,
		Visibility: visibility,
		WrittenBy:  sess.Nickname,
		CreatedAt:  time.Now(),
	}

	if err := s.diary.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create diary entry: %w", err)
	}

	s.hub.Publish(entry.CoupleID, stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryDiaryEntry,
		Record:   entry,
	})
	return entry, nil
}

// List returns the entries the session may see, newest first.
func (s *DiaryService) List(ctx context.Context, sess *models.Session) ([]*models.DiaryEntry, error) {
	return s.diary.ListVisible(ctx, sess.CoupleID, sess.Nickname)
}

// Delete removes the caller's own entry.
func (s *DiaryService) Delete(ctx context.Context, sess *models.Session, id string) error {
	return s.diary.Delete(ctx, id, sess.Nickname)
}
