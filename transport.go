package xmodem

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Transport.ReadByte when no byte arrived
// within the requested timeout. Transport implementations must return
// an error satisfying errors.Is(err, ErrTimeout) on timeout. The
// engine itself treats every ReadByte error, timeout or hard transport
// error alike, as "no byte arrived" and never returns it to the caller.
var ErrTimeout = errors.New("xmodem: read timeout")

// Transport is the byte-level primitive the engine is driven through.
// It mirrors spec.md §6 exactly: a blocking read with a timeout, and a
// write assumed to complete promptly (buffering is the transport's
// concern, not the engine's).
//
// Implementations: internal/serialport (real serial line) and
// iotransport (any io.ReadWriter, e.g. a net.Conn, os.Pipe, or a
// github.com/creack/pty pair).
type Transport interface {
	// ReadByte blocks for up to timeout for one byte. On timeout it
	// returns an error satisfying errors.Is(err, ErrTimeout).
	ReadByte(timeout time.Duration) (byte, error)
	// WriteByte writes one byte. Expected to complete promptly.
	WriteByte(b byte) error
}

// writeBytes writes each byte in turn, stopping at the first error.
func writeBytes(t Transport, data []byte) error {
	for _, b := range data {
		if err := t.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// sendAbort emits CAN CAN CAN to politely terminate the peer after an
// unrecoverable local error.
func sendAbort(t Transport) {
	_ = writeBytes(t, canAbortSequence[:])
}

// flushInput drains the transport's inbound buffer by reading with a
// 1.5-second timeout until the read times out, per spec.md §4.4's
// "Flush input" definition.
func flushInput(t Transport) {
	for {
		if _, err := t.ReadByte(flushTimeoutMs * time.Millisecond); err != nil {
			return
		}
	}
}

// awaitSecondCAN waits up to 1 second for a second consecutive CAN
// byte, the cancel confirmation both state machines require before
// treating a lone CAN as a remote cancellation.
func awaitSecondCAN(t Transport) bool {
	b, err := t.ReadByte(doubleCANWaitMs * time.Millisecond)
	return err == nil && b == CAN
}
