package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"togethermiles-backend/internal/apperr"
	"togethermiles-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCoupleStore is an in-memory CoupleStore with the same conditional-write
// semantics as the Postgres repository.
type fakeCoupleStore struct {
	mu      sync.Mutex
	couples map[string]*models.Couple
	byToken map[string]string
	creates int
}

func newFakeCoupleStore() *fakeCoupleStore {
	return &fakeCoupleStore{
		couples: make(map[string]*models.Couple),
		byToken: make(map[string]string),
	}
}

func (f *fakeCoupleStore) Create(_ context.Context, couple *models.Couple, clientToken string) (*models.Couple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if clientToken != "" {
		if id, ok := f.byToken[clientToken]; ok {
			existing := *f.couples[id]
			return &existing, nil
		}
		f.byToken[clientToken] = couple.ID
	}
	f.creates++
	stored := *couple
	f.couples[couple.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeCoupleStore) GetByID(_ context.Context, id string) (*models.Couple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	couple, ok := f.couples[id]
	if !ok {
		return nil, fmt.Errorf("couple %s: %w", id, apperr.ErrNotFound)
	}
	out := *couple
	return &out, nil
}

func (f *fakeCoupleStore) CodeExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.couples[id]
	return ok, nil
}

func (f *fakeCoupleStore) SetPartner2(_ context.Context, id string, p models.Partner) (*models.Couple, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	couple, ok := f.couples[id]
	if !ok {
		return nil, fmt.Errorf("couple %s: %w", id, apperr.ErrNotFound)
	}
	if couple.Partner2 != nil {
		return nil, fmt.Errorf("couple %s: %w", id, apperr.ErrAlreadyFull)
	}
	partner := p
	couple.Partner2 = &partner
	out := *couple
	return &out, nil
}

func newTestPairingService(store CoupleStore) *PairingService {
	return NewPairingService(store, NewTokenService("test-secret"))
}

func createTestCouple(t *testing.T, svc *PairingService) *AuthResult {
	t.Helper()
	res, err := svc.CreateCouple(context.Background(), CreateCoupleRequest{
		Username: "alice_u",
		Nickname: "Alice",
		Phone:    "+100",
		Role:     "girl",
	})
	require.NoError(t, err)
	return res
}

func TestCreateCouple(t *testing.T) {
	store := newFakeCoupleStore()
	svc := newTestPairingService(store)

	res := createTestCouple(t, svc)

	assert.Len(t, res.Couple.ID, 6)
	assert.Equal(t, "alice_u", res.Session.Username)
	assert.Equal(t, "Alice", res.Session.Nickname)
	assert.Equal(t, models.RolePartner1, res.Session.Role)
	assert.Empty(t, res.Session.PartnerNickname)
	assert.NotEmpty(t, res.Token)
	assert.Nil(t, res.Couple.Partner2)
}

func TestCreateCouple_ClientTokenIdempotent(t *testing.T) {
	store := newFakeCoupleStore()
	svc := newTestPairingService(store)

	req := CreateCoupleRequest{
		Username:    "alice_u",
		Nickname:    "Alice",
		Role:        "girl",
		ClientToken: "token-1",
	}

	first, err := svc.CreateCouple(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.CreateCouple(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Couple.ID, second.Couple.ID)
	assert.Equal(t, 1, store.creates)
}

func TestJoinCouple(t *testing.T) {
	store := newFakeCoupleStore()
	svc := newTestPairingService(store)
	created := createTestCouple(t, svc)

	res, err := svc.JoinCouple(context.Background(), JoinCoupleRequest{
		CoupleID: created.Couple.ID,
		Username: "bob_u",
		Nickname: "Bob",
		Role:     "boy",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RolePartner2, res.Session.Role)
	assert.Equal(t, "Alice", res.Session.PartnerNickname)
	require.NotNil(t, res.Couple.Partner2)
	assert.Equal(t, "Bob", res.Couple.Partner2.Nickname)
}

func TestJoinCouple_UnknownCode(t *testing.T) {
	svc := newTestPairingService(newFakeCoupleStore())

	_, err := svc.JoinCouple(context.Background(), JoinCoupleRequest{
		CoupleID: "NOPE11",
		Username: "bob_u",
		Nickname: "Bob",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestJoinCouple_AlreadyFull(t *testing.T) {
	store := newFakeCoupleStore()
	svc := newTestPairingService(store)
	created := createTestCouple(t, svc)

	_, err := svc.JoinCouple(context.Background(), JoinCoupleRequest{
		CoupleID: created.Couple.ID,
		Username: "bob_u",
		Nickname: "Bob",
	})
	require.NoError(t, err)

	_, err = svc.JoinCouple(context.Background(), JoinCoupleRequest{
		CoupleID: created.Couple.ID,
		Username: "carol_u",
		Nickname: "Carol",
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyFull)
}

func TestJoinCouple_ConcurrentExactlyOneWins(t *testing.T) {
	store := newFakeCoupleStore()
	svc := newTestPairingService(store)
	created := createTestCouple(t, svc)

	const joiners = 10
	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.JoinCouple(context.Background(), JoinCoupleRequest{
				CoupleID: created.Couple.ID,
				Username: fmt.Sprintf("user_%d", i),
				Nickname: fmt.Sprintf("User %d", i),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperr.ErrAlreadyFull)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestSignIn(t *testing.T) {
	store := newFakeCoupleStore()
	svc := newTestPairingService(store)
	created := createTestCouple(t, svc)
	_, err := svc.JoinCouple(context.Background(), JoinCoupleRequest{
		CoupleID: created.Couple.ID,
		Username: "bob_u",
		Nickname: "Bob",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		wantRole models.Role
		wantErr  error
	}{
		{name: "partner1", username: "alice_u", wantRole: models.RolePartner1},
		{name: "partner2", username: "bob_u", wantRole: models.RolePartner2},
		{name: "unknown username", username: "mallory_u", wantErr: apperr.ErrUsernameMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.SignIn(context.Background(), created.Couple.ID, tt.username)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, res.Session.Role)
			assert.NotEmpty(t, res.Session.PartnerNickname)
		})
	}
}

func TestSignIn_UnknownCouple(t *testing.T) {
	svc := newTestPairingService(newFakeCoupleStore())

	_, err := svc.SignIn(context.Background(), "NOPE11", "alice_u")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSignIn_TokenRoundTrip(t *testing.T) {
	store := newFakeCoupleStore()
	tokens := NewTokenService("test-secret")
	svc := NewPairingService(store, tokens)
	created := createTestCouple(t, svc)

	sess, err := tokens.Validate(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.Couple.ID, sess.CoupleID)
	assert.Equal(t, "alice_u", sess.Username)
}

// slowCoupleStore blocks until the context expires.
type slowCoupleStore struct{ fakeCoupleStore }

func (s *slowCoupleStore) GetByID(ctx context.Context, id string) (*models.Couple, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Minute):
		return nil, fmt.Errorf("couple %s: %w", id, apperr.ErrNotFound)
	}
}

func TestSignIn_TimeoutIsTransient(t *testing.T) {
	svc := newTestPairingService(&slowCoupleStore{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.SignIn(ctx, "ABC123", "alice_u")
	assert.ErrorIs(t, err, apperr.ErrTransient)
}
