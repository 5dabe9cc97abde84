package stream

import (
	"sync"
	"testing"
	"time"

	"togethermiles-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertEvent(id string) Event {
	return Event{
		Action:   ActionInsert,
		Category: models.CategoryMessage,
		Record:   &models.Message{ID: id, CoupleID: "ABC123"},
	}
}

func TestPublish_DeliversToSubscribers(t *testing.T) {
	h := NewHub()

	var got []string
	h.Subscribe("ABC123", models.CategoryMessage, func(ev Event) {
		got = append(got, ev.Record.RecordID())
	})

	h.Publish("ABC123", insertEvent("m1"))
	h.Publish("ABC123", insertEvent("m2"))

	assert.Equal(t, []string{"m1", "m2"}, got)
}

func TestPublish_ScopedToCoupleAndCategory(t *testing.T) {
	h := NewHub()

	var got []string
	h.Subscribe("ABC123", models.CategoryMessage, func(ev Event) {
		got = append(got, ev.Record.RecordID())
	})

	// Same category, other couple.
	h.Publish("XYZ789", insertEvent("other-couple"))
	// Same couple, other category.
	h.Publish("ABC123", Event{
		Action:   ActionInsert,
		Category: models.CategoryCoupleTodo,
		Record:   &models.Todo{ID: "t1", CoupleID: "ABC123"},
	})
	h.Publish("ABC123", insertEvent("m1"))

	assert.Equal(t, []string{"m1"}, got)
}

func TestCancel_StopsDelivery(t *testing.T) {
	h := NewHub()

	var got []string
	sub := h.Subscribe("ABC123", models.CategoryMessage, func(ev Event) {
		got = append(got, ev.Record.RecordID())
	})

	h.Publish("ABC123", insertEvent("m1"))
	sub.Cancel()
	h.Publish("ABC123", insertEvent("m2"))

	assert.Equal(t, []string{"m1"}, got)
}

func TestCancel_Idempotent(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ABC123", models.CategoryMessage, func(Event) {})

	sub.Cancel()
	require.NotPanics(t, func() { sub.Cancel() })
}

func TestPublish_ConcurrentWithCancel(t *testing.T) {
	h := NewHub()

	var mu sync.Mutex
	delivered := 0
	sub := h.Subscribe("ABC123", models.CategoryMessage, func(Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish("ABC123", insertEvent("m"))
		}()
	}
	sub.Cancel()
	wg.Wait()

	// Whatever was in flight, nothing lands after Cancel returned.
	mu.Lock()
	after := delivered
	mu.Unlock()
	h.Publish("ABC123", insertEvent("late"))
	mu.Lock()
	assert.Equal(t, after, delivered)
	mu.Unlock()
}

func TestPublish_TeardownFromDeliveryCallback(t *testing.T) {
	h := NewHub()

	// A subscriber tearing itself down from its own delivery, the way the
	// ws transport drops a client whose send buffer overflows. The cancel
	// must run on its own goroutine; Publish must not wedge on it.
	var sub *Subscription
	cancelled := make(chan struct{})
	sub = h.Subscribe("ABC123", models.CategoryMessage, func(Event) {
		go func() {
			sub.Cancel()
			close(cancelled)
		}()
	})

	published := make(chan struct{})
	go func() {
		h.Publish("ABC123", insertEvent("m1"))
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish did not return while the subscriber tore itself down")
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel did not complete")
	}

	// The hub still serves the topic.
	delivered := 0
	h.Subscribe("ABC123", models.CategoryMessage, func(Event) { delivered++ })
	h.Publish("ABC123", insertEvent("m2"))
	assert.Equal(t, 1, delivered)
}

func TestCancel_WaitsForInFlightDelivery(t *testing.T) {
	h := NewHub()

	entered := make(chan struct{})
	release := make(chan struct{})
	sub := h.Subscribe("ABC123", models.CategoryMessage, func(Event) {
		close(entered)
		<-release
	})

	go h.Publish("ABC123", insertEvent("m1"))
	<-entered

	cancelled := make(chan struct{})
	go func() {
		sub.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while a delivery was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel did not return after the delivery finished")
	}
}

func TestPublish_MultipleSubscribersSameTopic(t *testing.T) {
	h := NewHub()

	var a, b []string
	h.Subscribe("ABC123", models.CategoryMessage, func(ev Event) {
		a = append(a, ev.Record.RecordID())
	})
	h.Subscribe("ABC123", models.CategoryMessage, func(ev Event) {
		b = append(b, ev.Record.RecordID())
	})

	h.Publish("ABC123", insertEvent("m1"))

	assert.Equal(t, []string{"m1"}, a)
	assert.Equal(t, []string{"m1"}, b)
}
