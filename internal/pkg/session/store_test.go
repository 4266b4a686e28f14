package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"carbon-portal/internal/domain/identity"
	xerrors "carbon-portal/internal/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test", zaptest.NewLogger(t)), mr
}

// backends returns one fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "session.json"), zaptest.NewLogger(t)),
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func sampleIdentity() *identity.Identity {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &identity.Identity{
		ID:        "u1",
		Email:     "a@b.com",
		Name:      "Ada",
		Role:      identity.RoleEVOwner,
		Phone:     "+254700000000",
		Metadata:  map[string]any{"vehicles": float64(2), "region": "nairobi"},
		CreatedAt: ts,
		UpdatedAt: ts.Add(time.Hour),
	}
}

func TestStore_EmptyState(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			has, err := s.HasToken(ctx)
			require.NoError(t, err)
			assert.False(t, has)

			id, err := s.LoadIdentity(ctx)
			require.NoError(t, err)
			assert.Nil(t, id)

			tok, err := s.AccessToken(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)

			assert.NoError(t, s.Clear(ctx))
		})
	}
}

func TestStore_IdentityRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleIdentity()
			require.NoError(t, s.SaveIdentity(ctx, want))

			got, err := s.LoadIdentity(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_UnknownRoleSurvivesRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := &identity.Identity{ID: "u9", Email: "x@y.z", Role: identity.RoleFromCode(17)}
			require.NoError(t, s.SaveIdentity(ctx, want))

			got, err := s.LoadIdentity(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 17, got.Role.Code())
		})
	}
}

func TestStore_Tokens(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveToken(ctx, "access-1", "refresh-1"))

			has, err := s.HasToken(ctx)
			require.NoError(t, err)
			assert.True(t, has)

			tok, err := s.AccessToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "access-1", tok)

			require.NoError(t, s.SaveToken(ctx, "access-2", "refresh-2"))
			tok, err = s.AccessToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, "access-2", tok)
		})
	}
}

func TestStore_ClearIsTotal(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveToken(ctx, "access", "refresh"))
			require.NoError(t, s.SaveIdentity(ctx, sampleIdentity()))

			require.NoError(t, s.Clear(ctx))

			has, err := s.HasToken(ctx)
			require.NoError(t, err)
			assert.False(t, has)

			id, err := s.LoadIdentity(ctx)
			require.NoError(t, err)
			assert.Nil(t, id)
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("survives a new instance on the same path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "session.json")
		first := NewFileStore(path, zaptest.NewLogger(t))
		require.NoError(t, first.SaveToken(ctx, "access", "refresh"))
		require.NoError(t, first.SaveIdentity(ctx, sampleIdentity()))

		second := NewFileStore(path, zaptest.NewLogger(t))
		got, err := second.LoadIdentity(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleIdentity(), got)

		tok, err := second.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "access", tok)
	})

	t.Run("file is private to the user", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		s := NewFileStore(path, zaptest.NewLogger(t))
		require.NoError(t, s.SaveToken(ctx, "access", "refresh"))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".session-*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("corrupt document reads as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		s := NewFileStore(path, zaptest.NewLogger(t))

		has, err := s.HasToken(ctx)
		require.NoError(t, err)
		assert.False(t, has)

		id, err := s.LoadIdentity(ctx)
		require.NoError(t, err)
		assert.Nil(t, id)

		require.NoError(t, s.SaveToken(ctx, "fresh", "r"))
		tok, err := s.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", tok)
	})

	t.Run("corrupt identity reads as absent but keeps the token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		doc := `{"accessToken":"access","refreshToken":"refresh","user":"not-an-object"}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
		s := NewFileStore(path, zaptest.NewLogger(t))

		id, err := s.LoadIdentity(ctx)
		require.NoError(t, err)
		assert.Nil(t, id)

		has, err := s.HasToken(ctx)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("clear removes the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		s := NewFileStore(path, zaptest.NewLogger(t))
		require.NoError(t, s.SaveToken(ctx, "access", "refresh"))
		require.NoError(t, s.Clear(ctx))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
		assert.Equal(t, path, s.Path())
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("keys share one hash slot", func(t *testing.T) {
		s, mr := newRedisStore(t)
		require.NoError(t, s.SaveToken(ctx, "access", "refresh"))
		require.NoError(t, s.SaveIdentity(ctx, sampleIdentity()))

		assert.ElementsMatch(t,
			[]string{"{test}:accessToken", "{test}:refreshToken", "{test}:user"},
			mr.Keys(),
		)
		refresh, err := mr.Get("{test}:refreshToken")
		require.NoError(t, err)
		assert.Equal(t, "refresh", refresh)
	})

	t.Run("corrupt identity reads as absent", func(t *testing.T) {
		s, mr := newRedisStore(t)
		require.NoError(t, mr.Set("{test}:user", "garbage"))

		id, err := s.LoadIdentity(ctx)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("connection failure is a storage error", func(t *testing.T) {
		s, mr := newRedisStore(t)
		mr.Close()

		_, err := s.HasToken(ctx)
		assert.ErrorIs(t, err, xerrors.ErrStorage)
	})
}

func TestMemoryStore_RefreshToken(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SaveToken(context.Background(), "a", "r"))
	assert.Equal(t, "r", s.RefreshToken())
}
