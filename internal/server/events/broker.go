package events

import (
	"context"
	"sync"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/realtime"
)

// Broker manages event distribution to multiple subscribers.
type Broker struct {
	subscribers []Subscriber
	events      chan Event
	register    chan Subscriber
	unregister  chan Subscriber
	done        chan struct{}
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewBroker creates a new event broker.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		subscribers: make([]Subscriber, 0),
		events:      make(chan Event, constants.ChannelBufferSize),
		// Buffered so Subscribe does not block before Run starts.
		register:   make(chan Subscriber, 10),
		unregister: make(chan Subscriber, 10),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the broker's event loop. Should be called in a goroutine.
// The broker will run until the context is cancelled.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for _, sub := range b.subscribers {
				_ = sub.Close()
			}
			b.subscribers = nil
			b.mu.Unlock()
			b.logger.Info().Msg("Event broker shut down")
			return

		case sub := <-b.register:
			b.mu.Lock()
			b.subscribers = append(b.subscribers, sub)
			count := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().Int("total_subscribers", count).Msg("Subscriber registered")

		case sub := <-b.unregister:
			b.mu.Lock()
			for i, s := range b.subscribers {
				if s == sub {
					b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
					_ = s.Close()
					break
				}
			}
			count := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().Int("total_subscribers", count).Msg("Subscriber unregistered")

		case event := <-b.events:
			b.mu.RLock()
			subs := make([]Subscriber, len(b.subscribers))
			copy(subs, b.subscribers)
			b.mu.RUnlock()

			// Subscribers are non-blocking, so a sequential fan-out keeps
			// every transport in publish order.
			for _, sub := range subs {
				if err := sub.Send(event); err != nil {
					b.logger.Warn().Err(err).
						Str("event_id", event.ID).
						Msg("Failed to send event to subscriber")
				}
			}
			b.logger.Debug().
				Str("event_id", event.ID).
				Str("kind", event.Change.Kind.String()).
				Str("action", event.Change.Action.String()).
				Int("subscribers", len(subs)).
				Msg("Event broadcasted")
		}
	}
}

// Publish encodes a change and queues it for every subscriber. It fails
// if the change is not a valid event or the queue is full.
func (b *Broker) Publish(change realtime.ChangeEvent) (Event, error) {
	frame, err := realtime.Encode(change)
	if err != nil {
		return Event{}, err
	}
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: utc.Now(),
		Change:    change,
		Frame:     frame,
	}

	select {
	case <-b.done:
		return Event{}, errors.NewResourceError("publish", "event", event.ID, errors.ErrServiceUnavailable)
	default:
	}

	select {
	case b.events <- event:
		return event, nil
	default:
		b.logger.Warn().
			Str("kind", change.Kind.String()).
			Str("action", change.Action.String()).
			Msg("Event channel full, event dropped")
		return Event{}, errors.NewResourceError("publish", "event", event.ID, errors.ErrServiceUnavailable)
	}
}

// Subscribe registers a new subscriber to receive events.
func (b *Broker) Subscribe(sub Subscriber) {
	select {
	case b.register <- sub:
	case <-b.done:
	}
}

// Unsubscribe removes a subscriber from receiving events.
func (b *Broker) Unsubscribe(sub Subscriber) {
	select {
	case b.unregister <- sub:
	case <-b.done:
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
