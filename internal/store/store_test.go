package store

import (
	"context"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteWithoutRedis(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, &config.Config{Env: "test", DBDriver: config.DriverSQLite}, Options{CacheReads: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	assert.Nil(t, st.Redis)
	assert.Nil(t, st.Cache)
	assert.NoError(t, st.Ping(ctx))
}

func TestReset_EmptiesTablesAndRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	st, err := Open(ctx, &config.Config{Env: "test", DBDriver: config.DriverSQLite, RedisURL: mr.Addr()}, Options{CacheReads: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NotNil(t, st.Redis)
	require.NotNil(t, st.Cache)

	user := &models.User{Email: "a@example.com", Username: "a", Name: "A", PasswordHash: "x"}
	require.NoError(t, st.Users.Create(ctx, user))
	_, err = st.Users.GetPublicByUsername(ctx, "a")
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.ProfileKey("a")))

	require.NoError(t, st.Reset(ctx))

	assert.False(t, mr.Exists(cache.ProfileKey("a")))
	found, err := st.Users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestNew_CacheReadsDisabled(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	st, err := Open(ctx, &config.Config{Env: "test", DBDriver: config.DriverSQLite, RedisURL: mr.Addr()}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	assert.NotNil(t, st.Redis)
	assert.Nil(t, st.Cache)
}
