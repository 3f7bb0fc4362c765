package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/logger/adapter/stdlogger"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/uniuri"
)

const pingTimeout = 5 * time.Second

// Event kinds.
const (
	KindRole    = "role"
	KindUser    = "user"
	KindCatalog = "catalog"
)

// Event is one invalidation broadcast.
type Event struct {
	Origin string `json:"origin"`
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
}

// Handler applies a received invalidation locally.
type Handler func(Event)

// Bus publishes invalidations to other instances over a Redis channel.
type Bus struct {
	client  *redis.Client
	channel string
	origin  string
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	redis.SetLogger(stdlogger.ContextLogger{Logger: stdlogger.For("redis", zerolog.WarnLevel)})

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, errors.Wrapf(err, "redis ping %s", cfg.Addr)
	}

	return client, nil
}

// NewBus returns a Bus on channel. Every Bus gets its own origin so it can skip its own events.
func NewBus(client *redis.Client, channel string) *Bus {
	return &Bus{client: client, channel: channel, origin: uniuri.New()}
}

// Origin identifies this instance on the channel.
func (b *Bus) Origin() string {
	return b.origin
}

// Publish broadcasts an invalidation. A nil Bus is a no-op.
func (b *Bus) Publish(ctx context.Context, kind, id string) error {
	if b == nil || b.client == nil {
		return nil
	}

	payload, err := json.Marshal(Event{Origin: b.origin, Kind: kind, ID: id})
	if err != nil {
		return errors.Wrap(err, "encode invalidation")
	}

	return errors.Wrap(b.client.Publish(ctx, b.channel, payload).Err(), "publish invalidation")
}

// Listen subscribes to the channel and calls handle for every event of another instance
// until ctx is done. It returns once the subscription is confirmed.
func (b *Bus) Listen(ctx context.Context, handle Handler) error {
	if b == nil || b.client == nil {
		return nil
	}

	sub := b.client.Subscribe(ctx, b.channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()

		return errors.Wrapf(err, "subscribe %s", b.channel)
	}

	go func() {
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", b.channel).Msg("dropping malformed invalidation")

					continue
				}

				if ev.Origin == b.origin {
					continue
				}

				handle(ev)
			}
		}
	}()

	return nil
}
