package iotransport_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xmodem "github.com/kvexar/goxmodem"
	"github.com/kvexar/goxmodem/iotransport"
)

type memSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *memSink) Store(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.buf.Write(data)
	return err
}

func (s *memSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// TestLoopbackOverPTY drives a full Engine.Transmit/Receive pair over a
// real pseudo-terminal device via github.com/creack/pty, checking the
// production Transport implementation end to end rather than an
// in-memory test double.
func TestLoopbackOverPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer tty.Close()

	senderT := iotransport.New(ptmx)
	receiverT := iotransport.New(tty)
	defer senderT.Close()
	defer receiverT.Close()

	content := []byte("pty-backed xmodem transfer")
	sink := &memSink{}
	sender := xmodem.NewEngine(senderT, nil)
	receiver := xmodem.NewEngine(receiverT, nil)

	var wg sync.WaitGroup
	var sendErr, recvErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, sendErr = sender.Transmit(xmodem.NewBufferSource(content), int64(len(content)), false, true)
	}()
	go func() {
		defer wg.Done()
		_, recvErr = receiver.Receive(sink, int64(len(content)), true)
	}()
	wg.Wait()

	require.NoError(t, sendErr)
	require.NoError(t, recvErr)
	assert.Equal(t, content, sink.Bytes()[:len(content)])
}
