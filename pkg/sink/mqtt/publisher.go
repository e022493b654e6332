// Package mqtt publishes received telegrams to an MQTT broker.
package mqtt

import (
	"context"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/wmbus.go/pkg/mqtt"
	"github.com/robotalks/wmbus.go/pkg/wmbus/msgs"
	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

// Publisher publishes telegrams to
// <prefix><receiver>/telegram/<manufacturer>/<device id>.
type Publisher struct {
	// Pub publishes a payload, normally mqtt.Queue.Pub.
	Pub     func(topic string, payload []byte) paho.Token
	JSON    bool
	Timeout time.Duration

	queue *mqtt.Queue
}

// DefaultPublishTimeout bounds the wait for broker acknowledgement.
const DefaultPublishTimeout = 5 * time.Second

// NewPublisher creates a Publisher from broker URL.
func NewPublisher(brokerURL, receiver string) (*Publisher, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("wmbus:" + receiver)
	}
	opts.SetBinaryWill(prefix+receiver+"/online", []byte("0"), 1, true)
	q := mqtt.NewQueue(opts, prefix)
	q.OnConnect = func(q *mqtt.Queue) {
		q.PubWith(receiver+"/online", []byte("1"), 1, true)
	}
	return &Publisher{Pub: q.Pub, Timeout: DefaultPublishTimeout, queue: q}, nil
}

// Topic returns the topic, relative to the prefix, for a telegram.
func Topic(ev *telegram.Event) string {
	manufacturer, id := ev.Manufacturer, ev.DeviceID
	if manufacturer == "" {
		manufacturer = "unknown"
	}
	if id == "" {
		id = "unknown"
	}
	return strings.Join([]string{ev.Receiver, "telegram", manufacturer, id}, "/")
}

// HandleTelegram implements bus.Sink.
func (p *Publisher) HandleTelegram(ctx context.Context, ev *telegram.Event) error {
	payload, err := msgs.Encode(msgs.FromEvent(ev), p.JSON)
	if err != nil {
		return err
	}
	token := p.Pub(Topic(ev), payload)
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if !token.WaitTimeout(timeout) {
		return context.DeadlineExceeded
	}
	return token.Error()
}

// Run implements framework.Runnable, it keeps the broker connection
// until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if p.queue == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	token := p.queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	p.queue.Close()
	return ctx.Err()
}
