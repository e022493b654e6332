// Package bus fans out received telegrams to sinks.
package bus

import (
	"context"

	"github.com/cskr/pubsub"
	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

// TopicTelegram carries *Event values.
const TopicTelegram = "telegram"

// DefaultCapacity is the buffer size of each subscription.
const DefaultCapacity = 128

// Bus is a topic based publish/subscribe bus.
type Bus struct {
	ps *pubsub.PubSub
}

// New creates a Bus.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ps: pubsub.New(capacity)}
}

// Publish sends msg to all subscribers of topic.
func (b *Bus) Publish(topic string, msg interface{}) {
	glog.V(4).Infof("bus: publish %s %T", topic, msg)
	b.ps.Pub(msg, topic)
}

// Subscribe subscribes topics.
func (b *Bus) Subscribe(topics ...string) chan interface{} {
	return b.ps.Sub(topics...)
}

// Unsubscribe cancels the subscription, the channel is closed once
// it's unsubscribed from all topics.
func (b *Bus) Unsubscribe(ch chan interface{}, topics ...string) {
	b.ps.Unsub(ch, topics...)
}

// Close shuts down the bus and closes all subscriptions.
func (b *Bus) Close() {
	b.ps.Shutdown()
}

// Sink consumes telegram events.
type Sink interface {
	HandleTelegram(context.Context, *telegram.Event) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(context.Context, *telegram.Event) error

// HandleTelegram implements Sink.
func (f SinkFunc) HandleTelegram(ctx context.Context, ev *telegram.Event) error {
	return f(ctx, ev)
}

// Subscriber delivers telegram events from a Bus to a Sink.
type Subscriber struct {
	name string
	ch   chan interface{}
	bus  *Bus
	sink Sink
}

// Attach subscribes sink to telegram events. The subscription is made
// immediately so no event published afterwards is missed.
func (b *Bus) Attach(name string, sink Sink) *Subscriber {
	return &Subscriber{name: name, ch: b.Subscribe(TopicTelegram), bus: b, sink: sink}
}

// Name implements framework.Named.
func (s *Subscriber) Name() string {
	return s.name
}

// Run implements framework.Runnable. Sink errors are logged and do not stop
// the subscriber.
func (s *Subscriber) Run(ctx context.Context) error {
	defer func() {
		go s.bus.Unsubscribe(s.ch)
		for range s.ch {
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-s.ch:
			if !ok {
				return nil
			}
			ev, ok := msg.(*telegram.Event)
			if !ok {
				continue
			}
			if err := s.sink.HandleTelegram(ctx, ev); err != nil {
				glog.Warningf("%s: %v", s.name, err)
			}
		}
	}
}
