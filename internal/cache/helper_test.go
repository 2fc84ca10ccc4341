package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() {
		if client != nil {
			_ = client.Close()
		}
		client = nil
		mr.Close()
	})

	InitRedis(mr.Addr())
	require.NotNil(t, client, "redis client should connect to miniredis")
	return mr
}

func TestAside_PopulatesOnMissAndServesFromCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	loads := 0
	var got []string
	load := func() error {
		loads++
		got = []string{"a", "b"}
		return nil
	}

	require.NoError(t, Aside(ctx, "test:key", &got, time.Minute, load))
	assert.Equal(t, 1, loads)
	assert.Equal(t, []string{"a", "b"}, got)

	var again []string
	require.NoError(t, Aside(ctx, "test:key", &again, time.Minute, func() error {
		loads++
		return nil
	}))
	assert.Equal(t, 1, loads, "second read should be a cache hit")
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestAside_LoadErrorsAreNeverCached(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	loadErr := errors.New("db down")
	var dest []string
	err := Aside(ctx, "test:err", &dest, time.Minute, func() error { return loadErr })
	assert.ErrorIs(t, err, loadErr)
	assert.False(t, mr.Exists("test:err"))
}

func TestGetJSON_DropsCorruptEntries(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:corrupt", "{not json"))

	var dest map[string]string
	assert.False(t, GetJSON(ctx, "test:corrupt", &dest))
	assert.False(t, mr.Exists("test:corrupt"), "corrupt entry should be deleted")
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	SetJSON(ctx, PostKey(7), map[string]int{"id": 7}, time.Minute)
	require.True(t, mr.Exists("post:7"))

	InvalidatePost(ctx, 7)
	assert.False(t, mr.Exists("post:7"))
}

func TestInvalidateFollowGraph_DropsBothSides(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	for _, key := range []string{FollowingKey(1), FollowersKey(2), UserKey(1), UserKey(2)} {
		SetJSON(ctx, key, "x", time.Minute)
		require.True(t, mr.Exists(key))
	}

	InvalidateFollowGraph(ctx, 1, 2)
	for _, key := range []string{FollowingKey(1), FollowersKey(2), UserKey(1), UserKey(2)} {
		assert.False(t, mr.Exists(key), "expected %s to be invalidated", key)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	client = nil
	ctx := context.Background()

	var dest []string
	assert.False(t, GetJSON(ctx, "k", &dest))
	SetJSON(ctx, "k", "v", time.Minute)
	Invalidate(ctx, "k")
	assert.False(t, Healthy(ctx))

	loads := 0
	require.NoError(t, Aside(ctx, "k", &dest, time.Minute, func() error {
		loads++
		dest = []string{"fresh"}
		return nil
	}))
	assert.Equal(t, 1, loads, "every read should hit the loader without redis")
	assert.Equal(t, []string{"fresh"}, dest)

	assert.Error(t, Publish(ctx, "chan", []byte("x")))
	_, err := Subscribe(ctx, "chan")
	assert.Error(t, err)
}
