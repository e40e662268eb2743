package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Broker is the pub/sub transport for document channels. Publishers only
// ever call Publish; subscription bookkeeping lives with the subscriber.
type Broker struct {
	client *redis.Client
}

func NewBroker(client *redis.Client) *Broker {
	return &Broker{client: client}
}

// Publish marshals the message to JSON and publishes it on the channel.
func (b *Broker) Publish(ctx context.Context, channel string, message any) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, raw).Err()
}

// Subscribe opens a subscription on one channel. The caller owns the
// returned PubSub and must Close it.
func (b *Broker) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return b.client.Subscribe(ctx, channel)
}
