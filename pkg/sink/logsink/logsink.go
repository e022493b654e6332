// Package logsink logs received telegrams.
package logsink

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

// Sink writes a log line per telegram.
type Sink struct{}

// HandleTelegram implements bus.Sink.
func (Sink) HandleTelegram(_ context.Context, ev *telegram.Event) error {
	if ev.Incomplete {
		glog.Infof("[%s] incomplete %s", ev.Receiver, ev.Telegram)
		return nil
	}
	glog.Infof("[%s] %s", ev.Receiver, ev.Telegram)
	return nil
}
