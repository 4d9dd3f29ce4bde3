package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dayboard/domain"
)

const eventBuffer = 16

// Subscriber is one live subscription to a single owner's change feed. It is
// exclusively owned by the session that created it: acquire on mount with
// Subscribe, release on unmount with Close. After Close returns no further
// events are delivered; anything still in flight is discarded.
type Subscriber struct {
	ownerID string
	pubsub  *redis.PubSub
	events  chan domain.ChangeEvent
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Subscribe opens the owner's feed. Establishment failure wraps
// domain.ErrSubscriptionFailed so callers can degrade to fetch-only mode.
func Subscribe(ctx context.Context, client *redis.Client, ownerID string, logger *log.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	pubsub := client.Subscribe(ctx, ChannelFor(ownerID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrSubscriptionFailed, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Subscriber{
		ownerID: ownerID,
		pubsub:  pubsub,
		events:  make(chan domain.ChangeEvent, eventBuffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.pump(runCtx, logger)
	return s, nil
}

// Events returns the channel change events are delivered on. It is closed
// when the subscription ends.
func (s *Subscriber) Events() <-chan domain.ChangeEvent {
	return s.events
}

// OwnerID returns the owner whose feed this subscription is scoped to.
func (s *Subscriber) OwnerID() string {
	return s.ownerID
}

// Close tears down the subscription. It blocks until the delivery goroutine
// has exited, so no event arrives on Events after Close returns.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.cancel()
		_ = s.pubsub.Close()
		<-s.done
	})
}

func (s *Subscriber) pump(ctx context.Context, logger *log.Logger) {
	defer close(s.done)
	defer close(s.events)
	defer func() { _ = s.pubsub.Close() }()

	// The pub/sub channel survives connection drops; go-redis resubscribes
	// under the hood and only closes it when the PubSub itself is closed.
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev domain.ChangeEvent
			if err := sonic.ConfigStd.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Errorf("feed: unable to parse event: %v", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
