package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/parley-chat/parley/pkg/utils"
	"github.com/redis/go-redis/v9"
)

// RedisBridge republishes every emitted event to a Redis pub/sub channel so
// other processes (workers, a second API replica) can follow changes.
type RedisBridge struct {
	client      *redis.Client
	channel     string
	logger      *slog.Logger
	unsubscribe func()
}

// NewRedisBridge parses url (redis://host:port/db) and checks connectivity.
func NewRedisBridge(ctx context.Context, url, channel string) (*RedisBridge, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBridge{
		client:  client,
		channel: channel,
		logger:  utils.GetLogger(),
	}, nil
}

// Attach subscribes the bridge to all events of the emitter.
func (b *RedisBridge) Attach(emitter *Emitter) {
	b.unsubscribe = emitter.OnAny(func(ev Event) {
		payload, err := json.Marshal(WSMessage{
			Event: ev.EventName(),
			Data:  eventToData(ev),
			TS:    time.Now().UnixMilli(),
		})
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
			b.logger.Warn("redis publish failed", "event", ev.EventName(), "error", err)
		}
	})
}

// Close detaches from the emitter and closes the Redis client.
func (b *RedisBridge) Close() error {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	return b.client.Close()
}
