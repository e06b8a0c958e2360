package xmodem

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport replays a fixed sequence of reads and records every
// write, the xmodem analogue of the teacher's recording fake transports
// used to pin down exact byte sequences without a real peer.
type scriptedTransport struct {
	reads   []scriptedRead
	idx     int
	written []byte
}

type scriptedRead struct {
	b   byte
	err error
}

func rb(b byte) scriptedRead { return scriptedRead{b: b} }

func (s *scriptedTransport) ReadByte(_ time.Duration) (byte, error) {
	if s.idx >= len(s.reads) {
		return 0, ErrTimeout
	}
	r := s.reads[s.idx]
	s.idx++
	return r.b, r.err
}

func (s *scriptedTransport) WriteByte(b byte) error {
	s.written = append(s.written, b)
	return nil
}

func TestTransmitNoSyncExhaustsRetries(t *testing.T) {
	tr := &scriptedTransport{} // every read times out
	e := NewEngine(tr, nil)

	n, err := e.Transmit(NewBufferSource([]byte("hi")), 2, false, true)
	assert.Zero(t, n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSync))
	assert.Contains(t, tr.written, byte(CAN))
}

func TestTransmitCanceledDuringSync(t *testing.T) {
	tr := &scriptedTransport{reads: []scriptedRead{rb(CAN), rb(CAN)}}
	e := NewEngine(tr, nil)

	_, err := e.Transmit(NewBufferSource([]byte("hi")), 2, false, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.Equal(t, byte(ACK), tr.written[len(tr.written)-1])
}

func TestTransmitBlockRetryThenAck(t *testing.T) {
	content := []byte("hello world!")
	reads := []scriptedRead{rb(NAK)} // sync: checksum mode
	// First block attempt times out (no reply), second attempt gets ACK.
	reads = append(reads, scriptedRead{err: ErrTimeout})
	reads = append(reads, rb(ACK))
	reads = append(reads, rb(ACK)) // EOT ack
	tr := &scriptedTransport{reads: reads}
	e := NewEngine(tr, nil)

	n, err := e.Transmit(NewBufferSource(content), int64(len(content)), false, true)
	require.NoError(t, err)
	assert.Equal(t, int64(blockSize128), n)
}

func TestTransmitRetryBudgetExhausted(t *testing.T) {
	reads := []scriptedRead{rb(NAK)} // sync
	// No block reply ever arrives (every read times out); eventually retries run out.
	for i := 0; i < maxRetrans+2; i++ {
		reads = append(reads, scriptedRead{err: ErrTimeout})
	}
	tr := &scriptedTransport{reads: reads}
	e := NewEngine(tr, nil)

	_, err := e.Transmit(NewBufferSource([]byte("data")), 4, false, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransmitFailed))
}

func TestTransmitNoACKAfterEOT(t *testing.T) {
	content := []byte("x")
	reads := []scriptedRead{rb(NAK), rb(ACK)} // sync, block ack
	for i := 0; i < maxEOTAttempts+1; i++ {
		reads = append(reads, scriptedRead{err: ErrTimeout})
	}
	tr := &scriptedTransport{reads: reads}
	e := NewEngine(tr, nil)

	_, err := e.Transmit(NewBufferSource(content), int64(len(content)), false, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoACKAfterEOT))
}

func TestTransmitControlBlockSingleShot(t *testing.T) {
	cb := ControlBlock{Name: "a.txt", Size: 5}
	tr := &scriptedTransport{reads: []scriptedRead{rb(CRCSOH), rb(ACK)}}
	e := NewEngine(tr, nil)

	n, err := e.Transmit(NewControlBlockSource(cb), 0, true, true)
	require.NoError(t, err)
	assert.Equal(t, int64(blockSize128), n)
	assert.Equal(t, byte(CRCSOH), tr.reads[0].b)
}
