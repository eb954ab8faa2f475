package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisQueueKey = "teamspace:invitations:queue"

// RedisQueue is a Redis-list-backed queue: RPUSH to enqueue, BLPOP to
// dequeue. Multiple worker instances can drain it concurrently; the
// database claim keeps each invitation processed once.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: redisQueueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, invitationID string) error {
	return q.client.RPush(ctx, q.key, invitationID).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, bool, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return "", false, nil
	}
	return res[1], true, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
