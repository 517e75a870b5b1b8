package sessions_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-nagbot/sessions"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo_UpsertGet(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	claims := map[string]any{"sub": "user-1"}

	require.NoError(t, repo.Upsert(sessions.Session{Key: "k1", Identity: "user-1", Claims: claims}))

	// Mutating the caller's map must not leak into the store
	claims["sub"] = "someone-else"

	got, err := repo.Get("k1")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Claims["sub"])

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestInMemoryRepo_RejectsEmptyKey(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	require.Error(t, repo.Upsert(sessions.Session{}))
}

func TestInMemoryRepo_ListOrdered(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	now := time.Now()
	require.NoError(t, repo.Upsert(sessions.Session{Key: "b", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Upsert(sessions.Session{Key: "a", CreatedAt: now}))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Key)
	require.Equal(t, "b", list[1].Key)
}

func TestSession_Usable(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := sessions.Session{AccessToken: "tok", ExpiresAt: now.Add(time.Second)}
	require.True(t, s.Usable(now))
	require.False(t, s.Usable(now.Add(time.Second)))
	require.False(t, sessions.Session{ExpiresAt: now.Add(time.Hour)}.Usable(now))
}

func TestSession_SameTokens(t *testing.T) {
	exp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a := sessions.Session{Key: "a", AccessToken: "x", RefreshToken: "r", IDToken: "i", ExpiresAt: exp}
	b := a
	b.Key = "b"
	require.True(t, a.SameTokens(b))

	b.ExpiresAt = exp.In(time.FixedZone("other", 3600))
	require.True(t, a.SameTokens(b))

	b.AccessToken = "y"
	require.False(t, a.SameTokens(b))
}
