package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBoard(t *testing.T, b Board) {
	ctx := context.Background()

	_, ok, err := b.Latest(ctx, KindUpsert)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC().Truncate(time.Millisecond)
	later := now.Add(time.Second)
	require.NoError(t, b.Put(ctx, Status{JobID: "j1", Kind: KindUpsert, State: StatePending, SubmittedAt: now}))
	require.NoError(t, b.Put(ctx, Status{JobID: "j2", Kind: KindUpsert, State: StateRunning, SubmittedAt: later}))
	require.NoError(t, b.Put(ctx, Status{JobID: "j1", Kind: KindUpsert, State: StateFailed, Error: "boom", SubmittedAt: now}))

	s, ok, err := b.Get(ctx, "j1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, "boom", s.Error)
	assert.True(t, now.Equal(s.SubmittedAt))

	// j1 finished after j2 was submitted; j2 stays the latest
	latest, ok, err := b.Latest(ctx, KindUpsert)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j2", latest.JobID)
	assert.Equal(t, StateRunning, latest.State)

	require.NoError(t, b.Put(ctx, Status{JobID: "j2", Kind: KindUpsert, State: StateSucceeded, SubmittedAt: later}))
	latest, _, err = b.Latest(ctx, KindUpsert)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, latest.State)

	require.NoError(t, b.Put(ctx, Status{JobID: "j3", Kind: KindGetAnswer, State: StatePending, SubmittedAt: now}))
	latest, ok, err = b.Latest(ctx, KindGetAnswer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j3", latest.JobID)

	_, ok, err = b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBoard(t *testing.T) {
	exerciseBoard(t, NewMemoryBoard())
}

// TestRedisBoard runs against a real server when REDIS_ADDR is set
func TestRedisBoard(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	prefix := "chatbot-test-" + time.Now().Format("150405.000000")
	exerciseBoard(t, NewRedisBoard(client, prefix, time.Minute))
}

func TestRedisBoard_Keys(t *testing.T) {
	b := NewRedisBoard(nil, "", time.Hour)
	assert.Equal(t, "chatbot:job:abc", b.jobKey("abc"))
	assert.Equal(t, "chatbot:latest:upsert", b.latestKey(KindUpsert))
}

func TestStatus_Done(t *testing.T) {
	assert.False(t, Status{State: StatePending}.Done())
	assert.False(t, Status{State: StateRunning}.Done())
	assert.True(t, Status{State: StateSucceeded}.Done())
	assert.True(t, Status{State: StateFailed}.Done())
}
