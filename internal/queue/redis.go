package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisQueue is a Redis-list-backed Queue for deployments where the job
// backlog should survive a process restart.
type RedisQueue struct {
	client *redis.Client
	queue  string
}

func NewRedisQueue(addr, queue string) *RedisQueue {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisQueue{client: rdb, queue: queue}
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID int64) error {
	return q.client.LPush(ctx, q.queue, strconv.FormatInt(jobID, 10)).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (int64, error) {
	vals, err := q.client.BRPop(ctx, 0, q.queue).Result()
	if err != nil {
		return 0, err
	}
	if len(vals) < 2 {
		return 0, fmt.Errorf("unexpected BRPop response: %v", vals)
	}
	id, err := strconv.ParseInt(vals[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed job id %q: %w", vals[1], err)
	}
	return id, nil
}
