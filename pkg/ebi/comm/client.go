package comm

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultTimeout is the default time to wait for a response.
const DefaultTimeout = 3 * time.Second

// Result is the result of a command.
type Result struct {
	// Err is set when no valid response is received.
	Err error
	// ID is the response id.
	ID byte
	// Status is the execution status reported by the module.
	Status Status
	// Payload is the response payload without execution status.
	Payload []byte
	// Request is the encoded request frame.
	Request []byte
}

// Transmitted tells if a matching response is received.
func (r Result) Transmitted() bool {
	return r.Err == nil
}

// OK tells if a matching response is received and reports success.
func (r Result) OK() bool {
	return r.Err == nil && r.Status == StatusSuccess
}

// Error returns the transmission error or the execution status error.
func (r Result) Error() error {
	if r.Err != nil {
		return r.Err
	}
	if r.Status != StatusSuccess {
		return &StatusError{Status: r.Status}
	}
	return nil
}

// NotificationHandler is called with asynchronous notifications.
type NotificationHandler interface {
	HandleNotification(context.Context, *Frame)
}

// HandleNotificationFunc is func type of NotificationHandler.
type HandleNotificationFunc func(context.Context, *Frame)

// HandleNotification implements NotificationHandler.
func (f HandleNotificationFunc) HandleNotification(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// Client correlates commands with responses over a Link.
type Client struct {
	Timeout  time.Duration
	Notifier NotificationHandler

	link     *Link
	pending  list.List
	lock     sync.Mutex
	sendLock sync.Mutex
}

// Command represents a pending command waiting for response.
type Command struct {
	id         byte
	responseID byte
	hasStatus  bool
	request    []byte
	resultCh   chan Result
	timer      *time.Timer
	elem       *list.Element
}

// ID returns the command id.
func (c *Command) ID() byte {
	return c.id
}

// ResponseID returns the expected response id.
func (c *Command) ResponseID() byte {
	return c.responseID
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// Wait waits for the result. A canceled ctx doesn't withdraw the command,
// it still completes with a response or timeout.
func (c *Command) Wait(ctx context.Context) Result {
	select {
	case r := <-c.resultCh:
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err(), Request: c.request}
	}
}

func (c *Command) resolve(r Result) {
	r.Request = c.request
	c.resultCh <- r
	close(c.resultCh)
}

// NewClient creates client and wraps the link.
func NewClient(link *Link) *Client {
	c := &Client{
		Timeout: DefaultTimeout,
		link:    link,
	}
	c.link.Handler = c
	return c
}

// Link gets wrapped Link.
func (c *Client) Link() *Link {
	return c.link
}

// Pending returns the number of commands waiting for response.
func (c *Client) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pending.Len()
}

// Send sends a command and expects a response within timeout.
// A non-positive timeout selects Client.Timeout.
func (c *Client) Send(id byte, payload []byte, timeout time.Duration) *Command {
	cmd := c.newCommand(id, len(payload) > 0)
	frame, err := EncodeFrame(id, payload)
	if err != nil {
		cmd.resolve(Result{Err: err})
		return cmd
	}
	cmd.request = frame
	c.submit(frame, timeout, cmd)
	return cmd
}

// SendExpect sends a command and also expects an unsolicited response
// with followID after the command's own response. Both are registered
// before the command is written, so a quick follow-up is never orphaned.
func (c *Client) SendExpect(id byte, payload []byte, followID byte, timeout time.Duration) (cmd, follow *Command) {
	cmd = c.newCommand(id, len(payload) > 0)
	follow = c.newCommand(followID, false)
	frame, err := EncodeFrame(id, payload)
	if err != nil {
		cmd.resolve(Result{Err: err})
		follow.resolve(Result{Err: err})
		return
	}
	cmd.request = frame
	c.submit(frame, timeout, cmd, follow)
	return
}

// submit queues the expectations and writes the frame. The pending lock
// is released during the write so responses are dispatched meanwhile,
// sendLock keeps the queue order the same as the write order.
func (c *Client) submit(frame []byte, timeout time.Duration, cmds ...*Command) {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	c.lock.Lock()
	for _, cmd := range cmds {
		c.enqueue(cmd, timeout)
	}
	c.lock.Unlock()
	err := c.link.Write(frame)
	if err == nil {
		return
	}
	var failed []*Command
	c.lock.Lock()
	for _, cmd := range cmds {
		if c.dequeue(cmd) {
			failed = append(failed, cmd)
		}
	}
	c.lock.Unlock()
	for _, cmd := range failed {
		cmd.resolve(Result{Err: err})
	}
}

// Do sends a command with the default timeout.
func (c *Client) Do(id byte, payload ...byte) *Command {
	return c.Send(id, payload, 0)
}

// Expect waits for a response with id without sending anything.
// The response is expected not to carry an execution status.
func (c *Client) Expect(id byte, timeout time.Duration) *Command {
	cmd := c.newCommand(id, false)
	c.lock.Lock()
	c.enqueue(cmd, timeout)
	c.lock.Unlock()
	return cmd
}

// HandleFrame implements FrameHandler.
func (c *Client) HandleFrame(ctx context.Context, raw []byte) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		glog.V(2).Infof("discard frame %x: %v", raw, err)
		return
	}

	c.lock.Lock()
	var cmd *Command
	if elem := c.pending.Front(); elem != nil {
		cmd = elem.Value.(*Command)
		c.dequeue(cmd)
	}
	c.lock.Unlock()

	if cmd == nil {
		if frame.ID == NotificationDataReceived {
			if h := c.Notifier; h != nil {
				h.HandleNotification(ctx, frame)
			}
			return
		}
		glog.Warningf("orphan response 0x%02x: %x", frame.ID, frame.Payload)
		return
	}

	if frame.ID != cmd.responseID {
		cmd.resolve(Result{Err: &IDMismatchError{Expected: cmd.responseID, Received: frame.ID}})
		return
	}
	result := Result{ID: frame.ID, Payload: frame.Payload}
	if cmd.hasStatus {
		if len(frame.Payload) == 0 {
			result.Err = ErrNoStatus
		} else {
			result.Status, result.Payload = Status(frame.Payload[0]), frame.Payload[1:]
		}
	}
	cmd.resolve(result)
}

// Abort fails all pending commands with err.
func (c *Client) Abort(err error) {
	c.lock.Lock()
	var cmds []*Command
	for c.pending.Len() > 0 {
		cmd := c.pending.Front().Value.(*Command)
		c.dequeue(cmd)
		cmds = append(cmds, cmd)
	}
	c.lock.Unlock()
	for _, cmd := range cmds {
		cmd.resolve(Result{Err: err})
	}
}

// Run wraps Link.Run to implement Runnable.
// Pending commands fail with ErrClosed when the link stops.
func (c *Client) Run(ctx context.Context) error {
	defer c.Abort(ErrClosed)
	return c.link.Run(ctx)
}

func (c *Client) newCommand(id byte, hasStatus bool) *Command {
	return &Command{
		id:         id,
		responseID: id | ResponseFlag,
		hasStatus:  hasStatus,
		resultCh:   make(chan Result, 1),
	}
}

// enqueue must be called with lock held.
func (c *Client) enqueue(cmd *Command, timeout time.Duration) {
	if timeout <= 0 {
		if timeout = c.Timeout; timeout <= 0 {
			timeout = DefaultTimeout
		}
	}
	cmd.elem = c.pending.PushBack(cmd)
	cmd.timer = time.AfterFunc(timeout, func() { c.expire(cmd) })
}

// dequeue must be called with lock held. It returns false if cmd is
// already removed, so exactly one caller resolves it.
func (c *Client) dequeue(cmd *Command) bool {
	if cmd.elem == nil {
		return false
	}
	c.pending.Remove(cmd.elem)
	cmd.elem = nil
	cmd.timer.Stop()
	return true
}

func (c *Client) expire(cmd *Command) {
	c.lock.Lock()
	removed := c.dequeue(cmd)
	c.lock.Unlock()
	if removed {
		glog.V(2).Infof("command 0x%02x timeout", cmd.id)
		cmd.resolve(Result{Err: ErrTimeout})
	}
}
