package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus relays events through a Redis pub/sub channel so every portal
// instance sees every mutation.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus publishes on channel through client. The client stays owned by
// the caller.
func NewRedisBus(client *redis.Client, channel string) (*RedisBus, error) {
	if client == nil {
		return nil, errors.New("events: redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "leilao:events"
	}
	return &RedisBus{client: client, channel: channel}, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe events: %w", err)
	}
	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("drop malformed event", "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, cancel, nil
}

func (b *RedisBus) Close() error {
	return nil
}

var (
	_ Bus = (*LocalBus)(nil)
	_ Bus = (*RedisBus)(nil)
)
