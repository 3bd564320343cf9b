package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

const (
	// ChannelPrefix prefixes the per-owner pub/sub channel
	ChannelPrefix = "keep:feed:"
	// ChannelPattern matches every owner channel
	ChannelPattern = ChannelPrefix + "*"
)

// Channel returns the pub/sub channel of owner
func Channel(owner string) string {
	return ChannelPrefix + owner
}

// RedisBroker publishes through Redis pub/sub so every node sees every event.
// Each node keeps one pattern subscription and fans out through its Hub.
type RedisBroker struct {
	client redis.UniversalClient
	hub    *Hub
	log    logger.Logger
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker creates a broker delivering to hub
func NewRedisBroker(client redis.UniversalClient, hub *Hub, log logger.Logger) *RedisBroker {
	return &RedisBroker{client: client, hub: hub, log: log}
}

// Publish sends ev to the owner's channel
func (b *RedisBroker) Publish(ctx context.Context, ev domain.Event) error {
	if !ev.Valid() {
		return ErrInvalidEvent
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, Channel(ev.OwnerID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe registers a local listener for owner
func (b *RedisBroker) Subscribe(ctx context.Context, owner string) (*Subscription, error) {
	return b.hub.Subscribe(ctx, owner)
}

// Run relays events from Redis to the hub until ctx ends.
// ready, if not nil, is closed once the pattern subscription is active.
func (b *RedisBroker) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.PSubscribe(ctx, ChannelPattern)
	defer func() { _ = pubsub.Close() }()

	// Wait for confirmation so no event published after Run returns ready is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ChannelPattern, err)
	}
	if ready != nil {
		close(ready)
	}

	b.log.Info("feed relay started", logger.String("pattern", ChannelPattern))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.log.Info("feed relay stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("feed relay channel closed")
			}
			b.relay(msg)
		}
	}
}

func (b *RedisBroker) relay(msg *redis.Message) {
	var ev domain.Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		b.log.Warn("dropping malformed feed event",
			logger.String("channel", msg.Channel),
			logger.Error(err),
		)
		return
	}

	owner := strings.TrimPrefix(msg.Channel, ChannelPrefix)
	if !ev.Valid() || ev.OwnerID != owner {
		b.log.Warn("dropping feed event with mismatched owner",
			logger.String("channel", msg.Channel),
			logger.String("owner", ev.OwnerID),
		)
		return
	}

	b.hub.Deliver(ev)
}
