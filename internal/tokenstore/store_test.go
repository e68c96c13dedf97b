package tokenstore_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/roomio/roomio/internal/shared"
	"github.com/roomio/roomio/internal/tokenstore"
)

const hexSecret = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSaveLoadDelete(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	store, err := tokenstore.Open(ctx, rdb, tokenstore.Options{Secret: hexSecret, TTL: time.Hour})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "default", "eyJhbGciOi.token"))

	raw, err := mr.Get(tokenstore.DefaultPrefix + "entry:default")
	require.NoError(t, err)
	require.NotContains(t, raw, "eyJhbGciOi")
	require.Equal(t, time.Hour, mr.TTL(tokenstore.DefaultPrefix+"entry:default"))

	got, err := store.Load(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "eyJhbGciOi.token", got)

	token, err := store.Source("default").Token(ctx)
	require.NoError(t, err)
	require.Equal(t, got, token)

	require.NoError(t, store.Delete(ctx, "default"))
	_, err = store.Load(ctx, "default")
	require.ErrorIs(t, err, shared.ErrTokenMissing)
}

func TestEmptyTokenRejected(t *testing.T) {
	_, rdb := newRedis(t)
	store, err := tokenstore.Open(context.Background(), rdb, tokenstore.Options{Secret: hexSecret})
	require.NoError(t, err)
	require.ErrorIs(t, store.Save(context.Background(), "x", ""), shared.ErrTokenMissing)
}

func TestOpenRequiresSecret(t *testing.T) {
	_, rdb := newRedis(t)
	_, err := tokenstore.Open(context.Background(), rdb, tokenstore.Options{})
	require.Error(t, err)
}

func TestPassphraseKeyIsStableAcrossOpens(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	first, err := tokenstore.Open(ctx, rdb, tokenstore.Options{Secret: "correct horse battery staple"})
	require.NoError(t, err)
	require.True(t, mr.Exists(tokenstore.DefaultPrefix+"keyparams"))
	require.NoError(t, first.Save(ctx, "default", "abc"))

	second, err := tokenstore.Open(ctx, rdb, tokenstore.Options{Secret: "correct horse battery staple"})
	require.NoError(t, err)
	got, err := second.Load(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	_, err = tokenstore.Open(ctx, rdb, tokenstore.Options{Secret: "another passphrase"})
	require.ErrorIs(t, err, tokenstore.ErrKeyChanged)
}

func TestWrongKeyCannotOpen(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	store, err := tokenstore.Open(ctx, rdb, tokenstore.Options{Secret: hexSecret})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "default", "abc"))

	other, err := tokenstore.Open(ctx, rdb, tokenstore.Options{Secret: strings.Repeat("ff", 32)})
	require.NoError(t, err)
	_, err = other.Load(ctx, "default")
	require.ErrorIs(t, err, tokenstore.ErrCorrupt)
}
