package changefeed

import (
	"context"
	"fmt"
	"log/slog"

	"courierdesk/internal/core/ports"
	"courierdesk/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel shared by all instances.
const DefaultRedisChannel = "courierdesk:changes"

var _ ports.ChangeFeed = (*RedisFeed)(nil)

// RedisFeed publishes changes on a redis pub/sub channel so that every
// service instance observes writes made by the others. Received changes are
// fanned out to local subscribers through a Hub.
type RedisFeed struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
	pubsub  *redis.PubSub
	done    chan struct{}
}

// NewRedisFeed subscribes to channel and starts relaying. It returns once the
// subscription is confirmed by the server.
func NewRedisFeed(ctx context.Context, client *redis.Client, channel string, logger *slog.Logger) (*RedisFeed, error) {
	if channel == "" {
		channel = DefaultRedisChannel
	}

	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errs.NewStoreUnavailableError("redis subscribe "+channel, err)
	}

	f := &RedisFeed{
		client:  client,
		channel: channel,
		hub:     NewHub(),
		logger:  logger.With("component", "RedisFeed"),
		pubsub:  pubsub,
		done:    make(chan struct{}),
	}
	go f.relay()

	return f, nil
}

func (f *RedisFeed) Publish(ctx context.Context, changes ...ports.Change) error {
	for _, c := range changes {
		payload, err := encodeChange(c)
		if err != nil {
			return err
		}
		if err = f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
			return errs.NewStoreUnavailableError(fmt.Sprintf("redis publish %s", f.channel), err)
		}
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan ports.Change, error) {
	return f.hub.Subscribe(ctx)
}

// Close stops relaying and ends every local subscription.
func (f *RedisFeed) Close() error {
	err := f.pubsub.Close()
	<-f.done
	f.hub.Close()
	return err
}

func (f *RedisFeed) relay() {
	defer close(f.done)

	for msg := range f.pubsub.Channel() {
		c, err := decodeChange([]byte(msg.Payload))
		if err != nil {
			f.logger.Warn("dropping malformed change", "channel", msg.Channel, "error", err)
			continue
		}
		_ = f.hub.Publish(context.Background(), c)
	}
}
