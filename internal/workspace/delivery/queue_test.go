package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))
	require.NoError(t, q.Enqueue(ctx, "c"))

	for _, want := range []string{"a", "b", "c"} {
		id, ok, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, id)
	}
}

func TestMemoryQueueDequeueTimeout(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	start := time.Now()
	id, ok, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, id)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMemoryQueueClosed(t *testing.T) {
	q := NewMemoryQueue()
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	require.ErrorIs(t, q.Enqueue(context.Background(), "a"), ErrQueueClosed)

	_, _, err := q.Dequeue(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueueCloseUnblocksFullEnqueue(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	for i := 0; i < memoryQueueCapacity; i++ {
		require.NoError(t, q.Enqueue(ctx, "x"))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Enqueue(ctx, "overflow")
	}()

	// The producer is stuck on a full queue; Close must release it.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("enqueue still blocked after close")
	}
}

func TestRedisQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisQueue(client)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))

	id, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", id)

	id, ok, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", id)
}

func TestRedisQueueEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisQueue(client)
	defer q.Close()

	// go-redis clamps BLPOP timeouts below one second up to one second.
	id, ok, err := q.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, id)
}
