// Package wmbus receives wireless M-Bus telegrams from an Embit module.
package wmbus

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/bus"
	"github.com/robotalks/wmbus.go/pkg/ebi/comm"
	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

// Receiver decodes data received notifications and publishes the
// telegrams to a bus.
type Receiver struct {
	ID  string
	Bus *bus.Bus
	// Now is the clock stamping events, time.Now if nil.
	Now func() time.Time
}

// NewReceiver creates a Receiver.
func NewReceiver(id string, b *bus.Bus) *Receiver {
	return &Receiver{ID: id, Bus: b}
}

// HandleNotification implements comm.NotificationHandler.
func (r *Receiver) HandleNotification(ctx context.Context, frame *comm.Frame) {
	if frame.ID != comm.NotificationDataReceived {
		return
	}
	t, err := telegram.DecodeNotification(frame.Payload)
	if err != nil {
		glog.Warningf("drop telegram %x: %v", frame.Payload, err)
		return
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	glog.V(2).Infof("telegram %s", t)
	r.Bus.Publish(bus.TopicTelegram, &telegram.Event{
		Telegram:   t,
		Receiver:   r.ID,
		ReceivedAt: now(),
	})
}
