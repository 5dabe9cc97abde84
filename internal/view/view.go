// Package view holds the per-screen reconciler: an ordered, deduplicated
// in-memory sequence of records as one session is allowed to see them. It is
// pure state — no network handles — so a screen's merge behavior is testable
// with a plain sequence of apply calls.
package view

import "togethermiles-backend/internal/models"

// Order is the screen's presentation convention: chronological for chat-like
// feeds, newest-first for list views. It is not a subscriber invariant.
type Order int

const (
	// Ascending appends new records at the end (chat log).
	Ascending Order = iota
	// Descending prepends new records at the front (feeds, lists).
	Descending
)

// View is the reconciled state for one screen. Apply methods are idempotent
// by record id: the optimistic local insert and its streamed echo collapse
// into a single row.
type View struct {
	nickname string
	order    Order
	records  []models.Record
	byID     map[string]int
}

// New creates an empty view for the session identified by nickname.
func New(nickname string, order Order) *View {
	return &View{
		nickname: nickname,
		order:    order,
		byID:     make(map[string]int),
	}
}

// visible applies the visibility rule: only_me records are visible to their
// author alone.
func (v *View) visible(r models.Record) bool {
	if r.RecordVisibility() == models.VisibilityOnlyMe {
		return r.RecordAuthor() == v.nickname
	}
	return true
}

// ApplySnapshot replaces the view state wholesale. Records the session may
// not see are dropped; duplicate ids keep the first occurrence.
func (v *View) ApplySnapshot(records []models.Record) {
	v.records = v.records[:0]
	v.byID = make(map[string]int, len(records))
	for _, r := range records {
		if !v.visible(r) {
			continue
		}
		if _, ok := v.byID[r.RecordID()]; ok {
			continue
		}
		v.byID[r.RecordID()] = len(v.records)
		v.records = append(v.records, r)
	}
}

// ApplyInsert merges one streamed insert. A record already present by id is
// ignored, as is a record the session may not see — even when the stream
// delivers it.
func (v *View) ApplyInsert(r models.Record) {
	if !v.visible(r) {
		return
	}
	if _, ok := v.byID[r.RecordID()]; ok {
		return
	}
	if v.order == Ascending {
		v.byID[r.RecordID()] = len(v.records)
		v.records = append(v.records, r)
		return
	}
	v.records = append([]models.Record{r}, v.records...)
	v.reindex()
}

// ApplyUpdate replaces the record with the matching id in place. A missing id
// falls back to an insert, which guards against a snapshot that raced the
// update.
func (v *View) ApplyUpdate(r models.Record) {
	if !v.visible(r) {
		return
	}
	if i, ok := v.byID[r.RecordID()]; ok {
		v.records[i] = r
		return
	}
	v.ApplyInsert(r)
}

// Records returns the current sequence in presentation order. The slice is a
// copy; callers may not mutate view state through it.
func (v *View) Records() []models.Record {
	out := make([]models.Record, len(v.records))
	copy(out, v.records)
	return out
}

// Len returns the number of visible records.
func (v *View) Len() int { return len(v.records) }

// Contains reports whether a record with the given id is in the view.
func (v *View) Contains(id string) bool {
	_, ok := v.byID[id]
	return ok
}

func (v *View) reindex() {
	for i, r := range v.records {
		v.byID[r.RecordID()] = i
	}
}
