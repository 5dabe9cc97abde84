package services

import (
	"context"
	"fmt"
	"time"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/repository"

	"github.com/google/uuid"
)

// Plan prices in INR, matching the counseling flow.
const (
	voicePlanAmount = 50
	videoPlanAmount = 100
)

// PremiumService handles counseling requests. Payment review stays manual:
// requests are created pending and only a screenshot can be attached here.
type PremiumService struct {
	requests *repository.PremiumRepository
	blobs    *BlobStore
}

// NewPremiumService creates a new premium service
func NewPremiumService(requests *repository.PremiumRepository, blobs *BlobStore) *PremiumService {
	return &PremiumService{requests: requests, blobs: blobs}
}

// Create opens a pending request for the chosen plan.
func (s *PremiumService) Create(ctx context.Context, sess *models.Session, plan models.PremiumPlan) (*models.PremiumRequest, error) {
	amount := voicePlanAmount
	switch plan {
	case models.PlanVoice:
	case models.PlanVideo:
		amount = videoPlanAmount
	default:
		return nil, fmt.Errorf("invalid plan %q", plan)
	}

	req := &models.PremiumRequest{
		ID:          uuid.New().String(),
		CoupleID:    sess.CoupleID,
		RequestedBy: sess.Nickname,
		Plan:        plan,
		Amount:      amount,
		Status:      models.PremiumPending,
		CreatedAt:   time.Now(),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create premium request: %w", err)
	}
	return req, nil
}

// List returns the couple's requests newest first.
func (s *PremiumService) List(ctx context.Context, coupleID string) ([]*models.PremiumRequest, error) {
	return s.requests.ListByCouple(ctx, coupleID)
}

// NewScreenshotTarget presigns an upload slot for a payment screenshot.
func (s *PremiumService) NewScreenshotTarget(ctx context.Context, sess *models.Session, requestID, contentType string) (*UploadTarget, error) {
	key := fmt.Sprintf("payments/%s/%s.jpg", sess.CoupleID, requestID)
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

// AttachScreenshot records the uploaded screenshot URL on the request.
func (s *PremiumService) AttachScreenshot(ctx context.Context, sess *models.Session, requestID, url string) (*models.PremiumRequest, error) {
	return s.requests.SetScreenshot(ctx, requestID, sess.CoupleID, url)
}
