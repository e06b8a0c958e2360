// Package iotransport adapts any io.ReadWriter — a net.Conn, an
// os.Pipe, one end of a github.com/creack/pty pair, or an io.Pipe —
// into an xmodem.Transport, the way the teacher's reader.go
// layers a deadline-aware transportReader over a bare io.Reader.
package iotransport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	xmodem "github.com/kvexar/goxmodem"
)

// deadlineSetter is implemented by transports that support read
// deadlines, e.g. net.Conn and github.com/creack/pty's *os.File.
// Mirrors the teacher's reader.go interface of the same name.
type deadlineSetter interface {
	SetReadDeadline(time.Time) error
}

// Transport adapts rw into an xmodem.Transport. When rw implements
// deadlineSetter, ReadByte sets a per-call read deadline instead of
// spawning a reader goroutine; otherwise (e.g. an io.Pipe) it
// falls back to a background reader goroutine with a channel, same
// approach as internal/serialport.
type Transport struct {
	r  *bufio.Reader
	w  io.Writer
	ds deadlineSetter

	bytes chan byte
	errs  chan error
	done  chan struct{}
}

// New wraps rw. Close must be called to release the fallback reader
// goroutine when rw does not support deadlines.
func New(rw io.ReadWriter) *Transport {
	t := &Transport{
		r: bufio.NewReaderSize(rw, 4096),
		w: rw,
	}
	if ds, ok := rw.(deadlineSetter); ok {
		t.ds = ds
		return t
	}
	t.bytes = make(chan byte)
	t.errs = make(chan error, 1)
	t.done = make(chan struct{})
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			select {
			case t.errs <- err:
			case <-t.done:
			}
			return
		}
		select {
		case t.bytes <- b:
		case <-t.done:
			return
		}
	}
}

// ReadByte implements xmodem.Transport.
func (t *Transport) ReadByte(timeout time.Duration) (byte, error) {
	if t.ds != nil {
		if t.r.Buffered() == 0 {
			if err := t.ds.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return 0, fmt.Errorf("iotransport: set deadline: %w", err)
			}
		}
		b, err := t.r.ReadByte()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return 0, fmt.Errorf("iotransport: %w", xmodem.ErrTimeout)
			}
			return 0, fmt.Errorf("iotransport: read: %w", err)
		}
		return b, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case b := <-t.bytes:
		return b, nil
	case <-t.errs:
		return 0, fmt.Errorf("iotransport: %w", xmodem.ErrTimeout)
	case <-timer.C:
		return 0, fmt.Errorf("iotransport: %w", xmodem.ErrTimeout)
	}
}

// WriteByte implements xmodem.Transport.
func (t *Transport) WriteByte(b byte) error {
	_, err := t.w.Write([]byte{b})
	if err != nil {
		return fmt.Errorf("iotransport: write: %w", err)
	}
	return nil
}

// Close releases the fallback reader goroutine, if one was started.
// Safe to call on a deadline-capable transport, where it is a no-op.
func (t *Transport) Close() error {
	if t.done != nil {
		close(t.done)
	}
	return nil
}
