// Package ratelimit throttles the LLM-backed endpoints per client.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Returns the window count and the key's remaining TTL in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a Redis fixed-window limiter shared by every portal instance.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// New builds a limiter on an existing client.
func New(client *redis.Client, prefix string, limit int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if limit <= 0 || window < time.Millisecond {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "leilao:ratelimit"
	}
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}, nil
}

// Allow counts one request for key. Redis failures deny the request and
// return the error so callers can log it.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64Slice()
	if err != nil {
		return Decision{RetryAfter: time.Second}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{RetryAfter: time.Second}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	count, ttl := res[0], res[1]
	if count <= int64(l.limit) {
		return Decision{Allowed: true, Remaining: l.limit - int(count)}, nil
	}
	retry := time.Duration(ttl) * time.Millisecond
	if retry <= 0 {
		retry = l.window
	}
	return Decision{RetryAfter: retry}, nil
}
