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

// MediaStore is the slice of the media repository the service uses.
type MediaStore interface {
	Create(ctx context.Context, m *models.Media) error
	ListVisible(ctx context.Context, coupleID, viewerNickname string) ([]*models.Media, error)
	Delete(ctx context.Context, id, ownerNickname string) error
}

// MediaService handles one media category; the gallery and snap services are
// two instances with different categories and fan-out messages.
type MediaService struct {
	media    MediaStore
	couples  CoupleStore
	blobs    *BlobStore
	hub      *stream.Hub
	notifier *Notifier

	category  models.Category
	notifType string
	folder    string
	announce  func(nickname string) string
}

// NewGalleryService creates the media service over gallery photos.
func NewGalleryService(media MediaStore, couples CoupleStore, blobs *BlobStore, hub *stream.Hub, notifier *Notifier) *MediaService {
	return &MediaService{
		media: media, couples: couples, blobs: blobs, hub: hub, notifier: notifier,
		category:  models.CategoryGalleryPhoto,
		notifType: "gallery",
		folder:    "gallery",
		announce: func(nickname string) string {
			return nickname + " added a new photo to the gallery 📸"
		},
	}
}

// NewSnapService creates the media service over snap moments.
func NewSnapService(media MediaStore, couples CoupleStore, blobs *BlobStore, hub *stream.Hub, notifier *Notifier) *MediaService {
	return &MediaService{
		media: media, couples: couples, blobs: blobs, hub: hub, notifier: notifier,
		category:  models.CategorySnapMoment,
		notifType: "snap",
		folder:    "snaps",
		announce: func(nickname string) string {
			return nickname + " shared a snap moment 📷"
		},
	}
}

// UploadTarget is a presigned upload slot for one file.
type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	ExpiresIn int    `json:"expires_in"`
}

// NewUploadTarget presigns an upload keyed under the couple's folder.
func (s *MediaService) NewUploadTarget(ctx context.Context, sess *models.Session, filename, contentType string) (*UploadTarget, error) {
	key := fmt.Sprintf("%s/%s/%d_%s", s.folder, sess.CoupleID, time.Now().UnixMilli(), filename)
	uploadURL, err := s.blobs.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadTarget{
		UploadURL: uploadURL,
		FileURL:   s.blobs.PublicURL(key),
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}

// Create records an uploaded file. Shared records fan out to the partner;
// only_me records stay quiet.
func (s *MediaService) Create(ctx context.Context, sess *models.Session, fileURL string, caption *string, visibility models.Visibility) (*models.Media, error) {
	m := &models.Media{
		ID:         uuid.New().String(),
		CoupleID:   sess.CoupleID,
		FileURL:    fileURL,
		Caption:    caption,
		UploadedBy: sess.Nickname,
		Visibility: visibility,
		CreatedAt:  time.Now(),
	}

	if err := s.media.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", s.notifType, err)
	}

	s.hub.Publish(m.CoupleID, stream.Event{
		Action:   stream.ActionInsert,
		Category: s.category,
		Record:   m,
	})

	if visibility == models.VisibilityBoth {
		couple, err := s.couples.GetByID(ctx, sess.CoupleID)
		if err != nil {
			log.Error().Err(err).Str("couple_id", sess.CoupleID).Msg("Fan-out skipped, couple lookup failed")
			return m, nil
		}
		s.notifier.Fanout(ctx, couple, sess.Role, sess.Nickname, s.notifType, s.announce(sess.Nickname))
	}
	return m, nil
}

// List returns the media the session is allowed to see, newest first.
func (s *MediaService) List(ctx context.Context, sess *models.Session) ([]*models.Media, error) {
	return s.media.ListVisible(ctx, sess.CoupleID, sess.Nickname)
}

// Delete removes the caller's own record.
func (s *MediaService) Delete(ctx context.Context, sess *models.Session, id string) error {
	return s.media.Delete(ctx, id, sess.Nickname)
}
