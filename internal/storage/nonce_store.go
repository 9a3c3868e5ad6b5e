package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// nextNonceScript stores max(candidate, last+1) and returns it atomically
var nextNonceScript = redis.NewScript(`
local candidate = tonumber(ARGV[1])
local last = tonumber(redis.call('GET', KEYS[1]) or '0')
if candidate <= last then
	candidate = last + 1
end
redis.call('SET', KEYS[1], candidate)
return candidate
`)

// RedisNonceStore keeps the nonce watermark in Redis so replicas sharing one
// API key never send the same or a lower nonce. Only the watermark is stored.
type RedisNonceStore struct {
	client redis.Scripter
	key    string
	now    func() time.Time
}

// NewRedisNonceStore creates a nonce source keyed by key
func NewRedisNonceStore(client redis.Scripter, key string) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		key:    key,
		now:    time.Now,
	}
}

// Next returns the next nonce, at least the current time in milliseconds
func (s *RedisNonceStore) Next(ctx context.Context) (int64, error) {
	n, err := nextNonceScript.Run(ctx, s.client, []string{s.key}, s.now().UnixMilli()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to advance nonce %s: %w", s.key, err)
	}
	return n, nil
}
