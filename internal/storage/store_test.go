package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("token", "abc"))
	v, err := s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Delete("token"))
	_, err = s.Get("token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeleteMissingKey(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Delete("never-set"))
}

func TestFileStore_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("currency", "KZT"))
	require.NoError(t, s.Set("zoneId", "3"))
	require.NoError(t, s.Delete("zoneId"))

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	v, err := reloaded.Get("currency")
	require.NoError(t, err)
	assert.Equal(t, "KZT", v)

	_, err = reloaded.Get("zoneId")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemoryStore()

	type target struct {
		ID   int    `json:"id"`
		Mode string `json:"mode"`
	}

	// Missing key: out untouched, ok=false, no error.
	var got target
	ok, err := GetJSON(s, KeyLocation, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(s, KeyLocation, target{ID: 7, Mode: "pickup"}))
	ok, err = GetJSON(s, KeyLocation, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, target{ID: 7, Mode: "pickup"}, got)
}

func TestGetJSON_MalformedValue(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyCart, "not-json"))

	var out []int
	_, err := GetJSON(s, KeyCart, &out)
	assert.Error(t, err)
}
