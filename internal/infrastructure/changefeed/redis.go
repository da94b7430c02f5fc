package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBroker carries post events over a Redis pub/sub channel so every
// running instance sees mutations made by any of them. Incoming messages
// are fanned out to the local subscriptions through the shared hub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
	hub     *hub
	cancel  context.CancelFunc
}

func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	ctx, cancel := context.WithCancel(context.Background())

	b := &RedisBroker{
		client:  client,
		channel: channel,
		pubsub:  client.Subscribe(ctx, channel),
		hub:     newHub(),
		cancel:  cancel,
	}

	go b.receive(ctx)

	return b
}

func (b *RedisBroker) receive(ctx context.Context) {
	ch := b.pubsub.Channel()
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
				log.Error().Err(err).Str("payload", msg.Payload).Msg("malformed change feed event")
				continue
			}

			b.hub.broadcast(ev)
		}
	}
}

// Publish sends an event to every instance listening on the channel,
// this one included.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change feed event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change feed event: %w", err)
	}
	return nil
}

// Subscribe registers a new listener on the local fan-out.
func (b *RedisBroker) Subscribe() (*Subscription, error) {
	return b.hub.add(), nil
}

// Close tears down the Redis subscription and every local listener.
func (b *RedisBroker) Close() error {
	b.cancel()
	b.hub.closeAll()
	return b.pubsub.Close()
}
