package notify

import (
	"context"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix is prepended to the light id to form the Pub/Sub channel.
const DefaultChannelPrefix = "trafficlight:phase:"

// RedisPublisher publishes transitions over Redis Pub/Sub.
type RedisPublisher struct {
	client        redis.Cmdable
	channelPrefix string
	closed        atomic.Bool
}

// NewRedisPublisher creates a publisher on top of an existing client.
// The client is owned by the caller.
func NewRedisPublisher(client redis.Cmdable, channelPrefix string) *RedisPublisher {
	if channelPrefix == "" {
		channelPrefix = DefaultChannelPrefix
	}
	return &RedisPublisher{
		client:        client,
		channelPrefix: channelPrefix,
	}
}

// Channel returns the Pub/Sub channel used for a light.
func (p *RedisPublisher) Channel(lightID string) string {
	return p.channelPrefix + lightID
}

// Publish encodes t as JSON and publishes it to the light's channel.
func (p *RedisPublisher) Publish(ctx context.Context, t *Transition) error {
	if err := t.Validate(); err != nil {
		metricsRecorder().RecordNotifyFailed("redis", "invalid")
		return err
	}
	if p.closed.Load() {
		metricsRecorder().RecordNotifyFailed("redis", "closed")
		return ErrClosed
	}

	data, err := t.Encode()
	if err != nil {
		metricsRecorder().RecordNotifyFailed("redis", "marshal_failed")
		return err
	}
	if err := p.client.Publish(ctx, p.Channel(t.LightID), data).Err(); err != nil {
		metricsRecorder().RecordNotifyFailed("redis", "publish_failed")
		return err
	}
	metricsRecorder().RecordNotifySent("redis")
	return nil
}

// Close marks the publisher closed. It does not close the client.
func (p *RedisPublisher) Close() error {
	p.closed.Store(true)
	return nil
}

// Healthy pings Redis.
func (p *RedisPublisher) Healthy(ctx context.Context) bool {
	if p.closed.Load() {
		return false
	}
	return p.client.Ping(ctx).Err() == nil
}
