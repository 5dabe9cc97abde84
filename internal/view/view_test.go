package view

import (
	"testing"
	"time"

	"togethermiles-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(id, sender, text string) *models.Message {
	return &models.Message{
		ID:             id,
		CoupleID:       "ABC123",
		SenderNickname: sender,
		Text:           text,
		CreatedAt:      time.Now(),
	}
}

func media(id, uploader string, visibility models.Visibility) *models.Media {
	return &models.Media{
		ID:         id,
		CoupleID:   "ABC123",
		FileURL:    "https://example.com/" + id + ".jpg",
		UploadedBy: uploader,
		Visibility: visibility,
		CreatedAt:  time.Now(),
	}
}

func ids(v *View) []string {
	records := v.Records()
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.RecordID()
	}
	return out
}

func TestApplyInsert_Ascending(t *testing.T) {
	v := New("alice", Ascending)

	v.ApplyInsert(message("m1", "alice", "hi"))
	v.ApplyInsert(message("m2", "bob", "hello"))
	v.ApplyInsert(message("m3", "alice", "how are you"))

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(v))
}

func TestApplyInsert_Descending(t *testing.T) {
	v := New("alice", Descending)

	v.ApplyInsert(media("p1", "alice", models.VisibilityBoth))
	v.ApplyInsert(media("p2", "bob", models.VisibilityBoth))

	assert.Equal(t, []string{"p2", "p1"}, ids(v))
}

func TestApplyInsert_DuplicateIDIgnored(t *testing.T) {
	v := New("alice", Ascending)

	// Optimistic local insert followed by its streamed echo.
	v.ApplyInsert(message("m1", "alice", "hi"))
	v.ApplyInsert(message("m1", "alice", "hi"))

	assert.Equal(t, 1, v.Len())
}

func TestApplyInsert_PrivateRecordHiddenFromPartner(t *testing.T) {
	v := New("bob", Descending)

	v.ApplyInsert(media("p1", "alice", models.VisibilityOnlyMe))

	assert.Equal(t, 0, v.Len())
	assert.False(t, v.Contains("p1"))
}

func TestApplyInsert_PrivateRecordVisibleToAuthor(t *testing.T) {
	v := New("alice", Descending)

	v.ApplyInsert(media("p1", "alice", models.VisibilityOnlyMe))

	assert.True(t, v.Contains("p1"))
}

func TestApplySnapshot_ReplacesState(t *testing.T) {
	v := New("alice", Ascending)
	v.ApplyInsert(message("stale", "alice", "old"))

	v.ApplySnapshot([]models.Record{
		message("m1", "alice", "hi"),
		message("m2", "bob", "hello"),
	})

	assert.Equal(t, []string{"m1", "m2"}, ids(v))
	assert.False(t, v.Contains("stale"))
}

func TestApplySnapshot_FiltersAndDeduplicates(t *testing.T) {
	v := New("bob", Ascending)

	v.ApplySnapshot([]models.Record{
		media("p1", "alice", models.VisibilityOnlyMe),
		media("p2", "bob", models.VisibilityBoth),
		media("p2", "bob", models.VisibilityBoth),
	})

	assert.Equal(t, []string{"p2"}, ids(v))
}

func TestApplyUpdate_ReplacesInPlace(t *testing.T) {
	v := New("alice", Ascending)
	v.ApplyInsert(message("m1", "alice", "hi"))
	v.ApplyInsert(message("m2", "bob", "hello"))

	v.ApplyUpdate(message("m1", "alice", "edited"))

	records := v.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "m1", records[0].RecordID())
	assert.Equal(t, "edited", records[0].(*models.Message).Text)
}

func TestApplyUpdate_MissingIDFallsBackToInsert(t *testing.T) {
	v := New("alice", Ascending)

	// An update raced ahead of the snapshot that would have carried the row.
	v.ApplyUpdate(message("m1", "bob", "hello"))

	assert.True(t, v.Contains("m1"))
	assert.Equal(t, 1, v.Len())
}

func TestRecords_ReturnsCopy(t *testing.T) {
	v := New("alice", Ascending)
	v.ApplyInsert(message("m1", "alice", "hi"))

	records := v.Records()
	records[0] = message("other", "bob", "nope")

	assert.Equal(t, []string{"m1"}, ids(v))
}
