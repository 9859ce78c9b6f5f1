package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/storage"
)

func signedToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret-test-secret-test-secret"))
	require.NoError(t, err)
	return signed
}

// ============================================
// Token Inspection Tests
// ============================================

func TestInspectToken_Valid(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	claims, err := InspectToken(signedToken(t, "user-42", expiry))

	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.WithinDuration(t, expiry, claims.ExpiresAt, time.Second)
}

func TestInspectToken_Expired(t *testing.T) {
	_, err := InspectToken(signedToken(t, "user-42", time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestInspectToken_Garbage(t *testing.T) {
	_, err := InspectToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// ============================================
// Session Lifecycle Tests
// ============================================

func TestSession_SetAuthPersistsToken(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)

	token := signedToken(t, "7", time.Now().Add(time.Hour))
	require.NoError(t, s.SetAuth(token, model.User{ID: 7, Name: "Ann"}))

	assert.True(t, s.Authenticated())
	assert.Equal(t, token, s.Token())

	persisted, err := store.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, token, persisted)
}

func TestSession_SetAuthRejectsExpiredToken(t *testing.T) {
	s := New(storage.NewMemoryStore())

	err := s.SetAuth(signedToken(t, "7", time.Now().Add(-time.Hour)), model.User{ID: 7})

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.False(t, s.Authenticated())
}

func TestSession_RestoresPersistedToken(t *testing.T) {
	store := storage.NewMemoryStore()
	token := signedToken(t, "7", time.Now().Add(time.Hour))
	require.NoError(t, store.Set(storage.KeyToken, token))

	s := New(store)

	assert.True(t, s.HasToken())
	assert.False(t, s.Authenticated(), "user not fetched yet")
	assert.Equal(t, token, s.Token())
}

func TestSession_DiscardsExpiredPersistedToken(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.KeyToken, signedToken(t, "7", time.Now().Add(-time.Hour))))

	s := New(store)

	assert.False(t, s.HasToken())
	_, err := store.Get(storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSession_Teardown(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)
	require.NoError(t, s.SetAuth(signedToken(t, "7", time.Now().Add(time.Hour)), model.User{ID: 7}))
	require.True(t, s.TryBeginMerge())
	s.FinishMerge(false)

	var order []string
	s.OnTeardown(func() { order = append(order, "cart") })
	s.OnTeardown(func() { order = append(order, "selection") })

	s.Teardown()

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Equal(t, MergeNotStarted, s.Merge())
	assert.Equal(t, []string{"cart", "selection"}, order)

	_, err := store.Get(storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Idempotent.
	s.Teardown()
	assert.Equal(t, []string{"cart", "selection", "cart", "selection"}, order)
}

// ============================================
// Merge State Machine Tests
// ============================================

func TestSession_MergeIsOneShot(t *testing.T) {
	s := New(storage.NewMemoryStore())

	assert.True(t, s.TryBeginMerge())
	assert.False(t, s.TryBeginMerge(), "merge already in progress")

	s.FinishMerge(false)
	assert.Equal(t, MergeDone, s.Merge())
	assert.False(t, s.TryBeginMerge(), "merge already done this session")
}

func TestSession_FailedMergeCanRetry(t *testing.T) {
	s := New(storage.NewMemoryStore())

	require.True(t, s.TryBeginMerge())
	s.FinishMerge(true)

	assert.Equal(t, MergeNotStarted, s.Merge())
	assert.True(t, s.TryBeginMerge())
}

func TestSession_TeardownResetsMerge(t *testing.T) {
	s := New(storage.NewMemoryStore())
	require.True(t, s.TryBeginMerge())
	s.FinishMerge(false)

	s.Teardown()

	assert.True(t, s.TryBeginMerge(), "next login merges again")
}
