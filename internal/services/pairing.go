package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"togethermiles-backend/internal/apperr"
	"togethermiles-backend/internal/models"
)

const (
	codeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// pairingTimeout bounds every pairing call so a dead backend surfaces a
	// retryable error instead of hanging the entry screen.
	pairingTimeout = 10 * time.Second
)

// CoupleStore is the slice of the couple repository the pairing service uses.
type CoupleStore interface {
	Create(ctx context.Context, couple *models.Couple, clientToken string) (*models.Couple, error)
	GetByID(ctx context.Context, id string) (*models.Couple, error)
	CodeExists(ctx context.Context, id string) (bool, error)
	SetPartner2(ctx context.Context, id string, p models.Partner) (*models.Couple, error)
}

// PairingService establishes and resolves the shared couple identity.
type PairingService struct {
	couples CoupleStore
	tokens  *TokenService
}

// NewPairingService creates a new pairing service
func NewPairingService(couples CoupleStore, tokens *TokenService) *PairingService {
	return &PairingService{couples: couples, tokens: tokens}
}

// CreateCoupleRequest carries the partner1 profile. ClientToken is an
// optional client-generated idempotency token; retries of the same
// submission return the couple the first attempt created.
type CreateCoupleRequest struct {
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	ClientToken string `json:"client_token,omitempty"`
}

// JoinCoupleRequest carries the partner2 profile plus the shared couple code.
type JoinCoupleRequest struct {
	CoupleID string `json:"couple_id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// AuthResult is the outcome of any pairing operation: the couple, the device
// session, and a signed token for subsequent calls.
type AuthResult struct {
	Couple  *models.Couple  `json:"couple"`
	Session *models.Session `json:"session"`
	Token   string          `json:"token"`
}

// CreateCouple allocates a fresh couple code and writes partner1.
func (s *PairingService) CreateCouple(ctx context.Context, req CreateCoupleRequest) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, pairingTimeout)
	defer cancel()

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, classifyTimeout(err)
	}

	couple := &models.Couple{
		ID: code,
		Partner1: models.Partner{
			Username: req.Username,
			Nickname: req.Nickname,
			Phone:    req.Phone,
			Role:     req.Role,
		},
		CreatedAt: time.Now(),
	}

	couple, err = s.couples.Create(ctx, couple, req.ClientToken)
	if err != nil {
		return nil, classifyTimeout(fmt.Errorf("failed to create couple: %w", err))
	}

	return s.authResult(couple, couple.Partner1.Username)
}

// JoinCouple fills the partner2 slot. The repository performs the fill as one
// conditional update, so two concurrent joins yield exactly one success and
// one ErrAlreadyFull.
func (s *PairingService) JoinCouple(ctx context.Context, req JoinCoupleRequest) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, pairingTimeout)
	defer cancel()

	couple, err := s.couples.SetPartner2(ctx, req.CoupleID, models.Partner{
		Username: req.Username,
		Nickname: req.Nickname,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		return nil, classifyTimeout(err)
	}

	return s.authResult(couple, req.Username)
}

// SignIn resolves a username against an existing couple.
func (s *PairingService) SignIn(ctx context.Context, coupleID, username string) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, pairingTimeout)
	defer cancel()

	couple, err := s.couples.GetByID(ctx, coupleID)
	if err != nil {
		return nil, classifyTimeout(err)
	}

	return s.authResult(couple, username)
}

// authResult builds the session for username within couple, failing with
// ErrUsernameMismatch when it matches neither partner.
func (s *PairingService) authResult(couple *models.Couple, username string) (*AuthResult, error) {
	var sess models.Session
	switch {
	case couple.Partner1.Username == username:
		sess = models.Session{
			CoupleID: couple.ID,
			Username: username,
			Nickname: couple.Partner1.Nickname,
			Role:     models.RolePartner1,
		}
	case couple.Partner2 != nil && couple.Partner2.Username == username:
		sess = models.Session{
			CoupleID: couple.ID,
			Username: username,
			Nickname: couple.Partner2.Nickname,
			Role:     models.RolePartner2,
		}
	default:
		return nil, fmt.Errorf("couple %s: %w", couple.ID, apperr.ErrUsernameMismatch)
	}
	sess.PartnerNickname = couple.PartnerNicknameFor(sess.Role)

	token, err := s.tokens.Generate(&sess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &AuthResult{Couple: couple, Session: &sess, Token: token}, nil
}

// generateUniqueCode draws codes until one is unused.
func (s *PairingService) generateUniqueCode(ctx context.Context) (string, error) {
	const maxAttempts = 10
	for i := 0; i < maxAttempts; i++ {
		code := generateCode()
		exists, err := s.couples.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxAttempts)
}

func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// classifyTimeout folds deadline errors into the transient class so callers
// retry instead of treating the couple as broken.
func classifyTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
	}
	return err
}
