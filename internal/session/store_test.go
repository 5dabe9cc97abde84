package session

import (
	"os"
	"path/filepath"
	"testing"

	"togethermiles-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *models.Session {
	return &models.Session{
		CoupleID:        "ABC123",
		Username:        "alice_u",
		Nickname:        "Alice",
		Role:            models.RolePartner1,
		PartnerNickname: "Bob",
	}
}

func TestSaveLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(testSession()))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testSession(), got)
}

func TestLoad_MissingFile(t *testing.T) {
	store := NewStore(t.TempDir())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0o600))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_IncompleteSession(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(`{"username":"alice_u"}`), 0o600))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSave_Overwrites(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(testSession()))

	updated := testSession()
	updated.PartnerNickname = "Bobby"
	require.NoError(t, store.Save(updated))

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bobby", got.PartnerNickname)
}

func TestSave_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	store := NewStore(dir)

	require.NoError(t, store.Save(testSession()))

	got, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestClear(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(testSession()))

	require.NoError(t, store.Clear())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing again is a no-op.
	require.NoError(t, store.Clear())
}
