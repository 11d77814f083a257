package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-ide-api/internal/execution"
)

func newTestStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, time.Hour, time.Minute), server
}

func TestRedisStoreLoadDefaultsAndRoundTrips(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()

	empty, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, New("u1"), empty)

	state := State{
		UserID:    "u1",
		ProblemID: "p1",
		Code:      "switch",
		Console:   []string{"Results: 1/1 passed"},
		Results:   []execution.TestResult{{TestCaseID: "tc", Passed: true}},
		Running:   true,
		Solved:    []string{"p1"},
	}
	require.NoError(t, store.Save(ctx, state))
	require.True(t, server.Exists("ide:session:u1"))
	require.Equal(t, time.Hour, server.TTL("ide:session:u1"))

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.False(t, loaded.Running)
	loaded.Running = true
	require.Equal(t, state, loaded)
}

func TestRedisStoreRunLock(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()

	token, err := store.AcquireRun(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	running, err := store.IsRunning(ctx, "u1")
	require.NoError(t, err)
	require.True(t, running)

	_, err = store.AcquireRun(ctx, "u1")
	require.ErrorIs(t, err, ErrRunInProgress)

	require.NoError(t, store.ReleaseRun(ctx, "u1", "someone-else"))
	require.True(t, server.Exists("ide:session:u1:running"), "a foreign token must not release the lock")

	require.NoError(t, store.ReleaseRun(ctx, "u1", token))
	running, err = store.IsRunning(ctx, "u1")
	require.NoError(t, err)
	require.False(t, running)

	_, err = store.AcquireRun(ctx, "u1")
	require.NoError(t, err)
	server.FastForward(2 * time.Minute)
	_, err = store.AcquireRun(ctx, "u1")
	require.NoError(t, err, "an expired lock frees the user")
}
