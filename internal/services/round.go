package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/stream"

	"github.com/google/uuid"
)

// Default question pools for quick rounds.
var defaultTruths = []string{
	"What's your favorite memory of us?",
	"What did you first notice about me?",
	"What's something you've never told me?",
	"What's your biggest fear about our relationship?",
	"What's the most romantic thing you've ever imagined us doing?",
	"When did you realize you loved me?",
	"What's your favorite thing I do for you?",
	"What song reminds you of us?",
}

var defaultDares = []string{
	"Send me a voice note saying 'I love you' in 3 languages",
	"Change your profile picture to a photo of us for 24 hours",
	"Write me a 4-line poem right now",
	"Send me your most embarrassing selfie",
	"Call me and sing our favorite song",
	"Tell me 5 things you love about me in 30 seconds",
}

// RoundStore is the slice of the round repository the service uses.
type RoundStore interface {
	Create(ctx context.Context, round *models.Round) error
	GetByID(ctx context.Context, id string) (*models.Round, error)
	SetAnswer(ctx context.Context, id, answer, answeredBy string) (*models.Round, error)
	ListByCouple(ctx context.Context, coupleID string) ([]*models.Round, error)
}

// RoundService handles truth-or-dare rounds.
type RoundService struct {
	rounds RoundStore
	hub    *stream.Hub
}

// NewRoundService creates a new round service
func NewRoundService(rounds RoundStore, hub *stream.Hub) *RoundService {
	return &RoundService{rounds: rounds, hub: hub}
}

// Play starts a round with a random question from the default pool.
func (s *RoundService) Play(ctx context.Context, sess *models.Session, roundType models.RoundType) (*models.Round, error) {
	pool := defaultTruths
	if roundType == models.RoundDare {
		pool = defaultDares
	}
	return s.create(ctx, sess, roundType, pool[rand.Intn(len(pool))], false)
}

// AskCustom starts a round with a custom question.
func (s *RoundService) AskCustom(ctx context.Context, sess *models.Session, roundType models.RoundType, question string) (*models.Round, error) {
	return s.create(ctx, sess, roundType, question, true)
}

func (s *RoundService) create(ctx context.Context, sess *models.Session, roundType models.RoundType, question string, custom bool) (*models.Round, error) {
	round := &models.Round{
		ID:        uuid.New().String(),
		CoupleID:  sess.CoupleID,
		Type:      roundType,
		Question:  question,
		IsCustom:  custom,
		AskedBy:   sess.Nickname,
		CreatedAt: time.Now(),
	}

	if err := s.rounds.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	s.hub.Publish(round.CoupleID, stream.Event{
		Action:   stream.ActionInsert,
		Category: models.CategoryTruthOrDare,
		Record:   round,
	})
	return round, nil
}

// Answer attaches the partner's answer. The write is conditional on the
// answer still being empty, so submitting twice converges on the first
// answer instead of duplicating or overwriting.
func (s *RoundService) Answer(ctx context.Context, sess *models.Session, roundID, answer string) (*models.Round, error) {
	round, err := s.rounds.SetAnswer(ctx, roundID, answer, sess.Nickname)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(round.CoupleID, stream.Event{
		Action:   stream.ActionUpdate,
		Category: models.CategoryTruthOrDare,
		Record:   round,
	})
	return round, nil
}

// List returns rounds newest first.
func (s *RoundService) List(ctx context.Context, coupleID string) ([]*models.Round, error) {
	return s.rounds.ListByCouple(ctx, coupleID)
}
