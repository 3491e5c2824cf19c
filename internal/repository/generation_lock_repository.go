package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript refreshes the TTL only while the lock is still held by the caller's token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// GenerationLockRepository is a Redis mutex keyed per semester, shared by every API replica.
type GenerationLockRepository struct {
	client *redis.Client
	prefix string
}

// NewGenerationLockRepository constructs the lock store.
func NewGenerationLockRepository(client *redis.Client) *GenerationLockRepository {
	return &GenerationLockRepository{client: client, prefix: "timetable:lock:"}
}

// Acquire takes the lock for key with a TTL, returning false when another holder owns it.
func (r *GenerationLockRepository) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, r.prefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release frees the lock if token still owns it. An expired lock is not an error.
func (r *GenerationLockRepository) Release(ctx context.Context, key, token string) error {
	if r.client == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{r.prefix + key}, token).Err(); err != nil {
		return fmt.Errorf("redis release lock %s: %w", key, err)
	}
	return nil
}

// Extend pushes the lock expiry out to ttl from now. It returns false when token no longer owns the lock.
func (r *GenerationLockRepository) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	n, err := extendScript.Run(ctx, r.client, []string{r.prefix + key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis extend lock %s: %w", key, err)
	}
	return n == 1, nil
}
