package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"togethermiles-backend/internal/models"
	"togethermiles-backend/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotificationStore is an in-memory NotificationStore.
type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
	createErr     error
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	stored := *n
	f.notifications = append(f.notifications, &stored)
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(_ context.Context, coupleID, recipient string, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.notifications {
		if n.CoupleID == coupleID && n.RecipientNickname == recipient {
			out = append(out, n)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, coupleID, recipient string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, n := range f.notifications {
		if n.CoupleID == coupleID && n.RecipientNickname == recipient && !n.IsRead {
			n.IsRead = true
			ids = append(ids, n.ID)
		}
	}
	return ids, nil
}

func pairedCouple() *models.Couple {
	return &models.Couple{
		ID:       "ABC123",
		Partner1: models.Partner{Username: "alice_u", Nickname: "Alice", Role: "girl"},
		Partner2: &models.Partner{Username: "bob_u", Nickname: "Bob", Role: "boy"},
	}
}

func unpairedCouple() *models.Couple {
	return &models.Couple{
		ID:       "ABC123",
		Partner1: models.Partner{Username: "alice_u", Nickname: "Alice", Role: "girl"},
	}
}

func TestFanout_TargetsPartner(t *testing.T) {
	store := &fakeNotificationStore{}
	notifier := NewNotifier(store, stream.NewHub(), nil)

	notifier.Fanout(context.Background(), pairedCouple(), models.RolePartner1, "Alice", "chat", "Alice: hi 💬")

	require.Len(t, store.notifications, 1)
	n := store.notifications[0]
	assert.Equal(t, "Bob", n.RecipientNickname)
	assert.Equal(t, "Alice", n.SenderNickname)
	assert.Equal(t, "chat", n.Type)
	assert.False(t, n.IsRead)
}

func TestFanout_SkippedWhenPartnerNotJoined(t *testing.T) {
	store := &fakeNotificationStore{}
	notifier := NewNotifier(store, stream.NewHub(), nil)

	notifier.Fanout(context.Background(), unpairedCouple(), models.RolePartner1, "Alice", "chat", "Alice: hi 💬")

	assert.Empty(t, store.notifications)
}

func TestFanout_PublishesStreamEvent(t *testing.T) {
	store := &fakeNotificationStore{}
	hub := stream.NewHub()
	notifier := NewNotifier(store, hub, nil)

	var got []stream.Event
	hub.Subscribe("ABC123", models.CategoryNotification, func(ev stream.Event) {
		got = append(got, ev)
	})

	notifier.Fanout(context.Background(), pairedCouple(), models.RolePartner2, "Bob", "gallery", "Bob added a new photo to the gallery 📸")

	require.Len(t, got, 1)
	assert.Equal(t, stream.ActionInsert, got[0].Action)
	assert.Equal(t, "Alice", got[0].Record.(*models.Notification).RecipientNickname)
}

func TestFanout_StoreErrorSwallowed(t *testing.T) {
	store := &fakeNotificationStore{createErr: errors.New("db down")}
	hub := stream.NewHub()
	notifier := NewNotifier(store, hub, nil)

	delivered := 0
	hub.Subscribe("ABC123", models.CategoryNotification, func(stream.Event) { delivered++ })

	notifier.Fanout(context.Background(), pairedCouple(), models.RolePartner1, "Alice", "chat", "Alice: hi 💬")

	assert.Zero(t, delivered)
}

func TestMarkAllRead_OnlyRecipientsUnread(t *testing.T) {
	store := &fakeNotificationStore{}
	notifier := NewNotifier(store, stream.NewHub(), nil)

	couple := pairedCouple()
	notifier.Fanout(context.Background(), couple, models.RolePartner1, "Alice", "chat", "one")
	notifier.Fanout(context.Background(), couple, models.RolePartner1, "Alice", "chat", "two")
	notifier.Fanout(context.Background(), couple, models.RolePartner2, "Bob", "chat", "three")

	ids, err := notifier.MarkAllRead(context.Background(), "ABC123", "Bob")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	// Second pass finds nothing left unread.
	ids, err = notifier.MarkAllRead(context.Background(), "ABC123", "Bob")
	require.NoError(t, err)
	assert.Empty(t, ids)

	remaining, err := notifier.List(context.Background(), "ABC123", "Alice", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.False(t, remaining[0].IsRead)
}

func TestChatPreview(t *testing.T) {
	assert.Equal(t, "Alice: hi 💬", ChatPreview("Alice", "hi"))

	long := strings.Repeat("a", 60)
	preview := ChatPreview("Alice", long)
	assert.Equal(t, "Alice: "+strings.Repeat("a", 40)+"... 💬", preview)
}

// fakeMessageStore is an in-memory MessageStore.
type fakeMessageStore struct {
	messages []*models.Message
}

func (f *fakeMessageStore) Create(_ context.Context, msg *models.Message) error {
	stored := *msg
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeMessageStore) ListByCouple(_ context.Context, coupleID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.messages {
		if m.CoupleID == coupleID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestSend_FansOutPreview(t *testing.T) {
	couples := newFakeCoupleStore()
	couple := pairedCouple()
	couples.couples[couple.ID] = couple
	messages := &fakeMessageStore{}
	notifications := &fakeNotificationStore{}
	hub := stream.NewHub()
	svc := NewMessageService(messages, couples, hub, NewNotifier(notifications, hub, nil))

	sess := &models.Session{CoupleID: "ABC123", Username: "alice_u", Nickname: "Alice", Role: models.RolePartner1}
	msg, err := svc.Send(context.Background(), sess, "dinner tonight?")
	require.NoError(t, err)

	assert.Equal(t, "Alice", msg.SenderNickname)
	require.Len(t, notifications.notifications, 1)
	assert.Equal(t, "Alice: dinner tonight? 💬", notifications.notifications[0].Message)
	assert.Equal(t, "Bob", notifications.notifications[0].RecipientNickname)
}

func TestSend_PartnerNotJoined(t *testing.T) {
	couples := newFakeCoupleStore()
	couple := unpairedCouple()
	couples.couples[couple.ID] = couple
	messages := &fakeMessageStore{}
	notifications := &fakeNotificationStore{}
	hub := stream.NewHub()
	svc := NewMessageService(messages, couples, hub, NewNotifier(notifications, hub, nil))

	sess := &models.Session{CoupleID: "ABC123", Username: "alice_u", Nickname: "Alice", Role: models.RolePartner1}
	msg, err := svc.Send(context.Background(), sess, "hello?")
	require.NoError(t, err)

	// The message lands even though nobody is notified.
	assert.NotNil(t, msg)
	assert.Len(t, messages.messages, 1)
	assert.Empty(t, notifications.notifications)
}
