package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/alanyang/project-registry/internal/domain/event"
	porteventbus "github.com/alanyang/project-registry/internal/port/eventbus"
)

var _ porteventbus.EventBus = (*EventBus)(nil)

const channelPrefix = "registry:events:" // Pub/Sub channel per domain channel: registry:events:{channel}

// EventBus carries events over Redis Pub/Sub. Delivery is at-most-once;
// subscribers that are offline miss events.
type EventBus struct {
	client *redis.Client
}

func New(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	channel := channelName(event.ChannelFor(e.Type))
	if err := eb.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing event on channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published afterwards are guaranteed to reach handler.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	channel := channelName(ch)
	pubsub := eb.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to channel %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &subscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		for msg := range pubsub.Channel() {
			var e event.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				slog.Warn("dropping malformed event", "channel", channel, "error", err)
				continue
			}
			handler(subCtx, e)
		}
	}()

	return sub, nil
}

func channelName(ch event.Channel) string {
	return channelPrefix + string(ch)
}

type subscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.pubsub.Close()
		<-s.done
	})
}
