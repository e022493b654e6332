package comm

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
)

// FrameHandler is called when a complete raw frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, []byte)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, []byte)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame []byte) {
	f(ctx, frame)
}

// DefaultReadBufferSize is the size of chunks read from the link.
const DefaultReadBufferSize = 256

// Link sends/receives frames over a byte stream (e.g. serial port).
type Link struct {
	ReadWriter     io.ReadWriter
	Handler        FrameHandler
	ReadBufferSize int

	parser   Parser
	sendLock sync.Mutex
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter:     rw,
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// Write writes an encoded frame.
func (l *Link) Write(frame []byte) error {
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	if glog.V(4) {
		glog.Infof("TX %x", frame)
	}
	for len(frame) > 0 {
		n, err := l.ReadWriter.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

// Feed pushes received bytes through the parser and dispatches
// completed frames. It must not be called concurrently.
func (l *Link) Feed(ctx context.Context, data []byte) {
	for _, r := range l.parser.Feed(data) {
		if r.Err != nil {
			glog.Warningf("framing error, buffer dropped: %v", r.Err)
			continue
		}
		if glog.V(4) {
			glog.Infof("RX %x", r.Frame)
		}
		if h := l.Handler; h != nil {
			h.HandleFrame(ctx, r.Frame)
		}
	}
}

// Run reads the stream until error or ctx is done.
func (l *Link) Run(ctx context.Context) error {
	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			l.Feed(ctx, chunk)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close implements io.Closer.
func (l *Link) Close() error {
	if closer, ok := l.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (l *Link) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	size := l.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	buf := make([]byte, size)
	for {
		n, err := l.ReadWriter.Read(buf)
		if err != nil && !os.IsTimeout(err) {
			errCh <- err
			return
		}
		if n == 0 {
			// read timeout on serial ports.
			if ctx.Err() != nil {
				return
			}
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}
