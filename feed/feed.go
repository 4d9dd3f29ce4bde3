// Package feed carries row-level task change notifications between the store
// and live subscribers over Redis pub/sub. Each owner has one channel; events
// are tagged inserted, updated or deleted and carry the affected row.
package feed

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"dayboard/domain"
)

const channelPrefix = "task-feed:"

// ChannelFor returns the pub/sub channel name for an owner's feed.
func ChannelFor(ownerID string) string {
	return channelPrefix + ownerID
}

// Publisher announces change events on the owning user's channel.
type Publisher struct {
	redis *redis.Client
}

// NewPublisher creates a Publisher using the provided Redis client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{redis: client}
}

// Publish sends one change event to the owner's feed channel.
func (p *Publisher) Publish(ctx context.Context, ownerID string, ev domain.ChangeEvent) error {
	data, err := sonic.ConfigStd.Marshal(ev)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, ChannelFor(ownerID), data).Err()
}
