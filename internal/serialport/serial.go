// Package serialport implements xmodem.Transport over a real serial
// line via github.com/pkg/term, in the style of samoyed's
// serial_port.go (itself ported from direwolf's serial_port.c): open,
// set speed, raw byte reads and writes.
//
// pkg/term's Term has no per-read deadline, so Open starts one
// background reader goroutine that feeds a byte channel; ReadByte
// selects against that channel with a timer instead of blocking on
// the fd directly.
package serialport

import (
	"fmt"
	"time"

	"github.com/pkg/term"

	xmodem "github.com/kvexar/goxmodem"
)

// Port is a serial line opened in raw mode, a direct generalization of
// samoyed's serial_port_open/serial_port_get1/serial_port_write
// trio into a single xmodem.Transport implementation.
type Port struct {
	fd *term.Term

	bytes chan byte
	errs  chan error
	done  chan struct{}
}

// Open opens devicename (e.g. "/dev/ttyUSB0") in raw mode at baud bps.
// baud == 0 leaves the line's current speed alone, matching
// samoyed's "leave it alone" case.
func Open(devicename string, baud int) (*Port, error) {
	fd, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", devicename, err)
	}

	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := fd.SetSpeed(baud); err != nil {
			fd.Close()
			return nil, fmt.Errorf("serialport: set speed %d on %s: %w", baud, devicename, err)
		}
	default:
		return nil, fmt.Errorf("serialport: unsupported speed %d", baud)
	}

	p := &Port{
		fd:    fd,
		bytes: make(chan byte),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func (p *Port) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := p.fd.Read(buf)
		if err != nil {
			select {
			case p.errs <- err:
			case <-p.done:
			}
			return
		}
		if n != 1 {
			continue
		}
		select {
		case p.bytes <- buf[0]:
		case <-p.done:
			return
		}
	}
}

// ReadByte implements xmodem.Transport.
func (p *Port) ReadByte(timeout time.Duration) (byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case b := <-p.bytes:
		return b, nil
	case err := <-p.errs:
		return 0, err
	case <-timer.C:
		return 0, fmt.Errorf("serialport: %w", xmodem.ErrTimeout)
	}
}

// WriteByte implements xmodem.Transport.
func (p *Port) WriteByte(b byte) error {
	n, err := p.fd.Write([]byte{b})
	if err != nil {
		return fmt.Errorf("serialport: write: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("serialport: short write (%d bytes)", n)
	}
	return nil
}

// Close stops the background reader and closes the underlying port.
func (p *Port) Close() error {
	close(p.done)
	return p.fd.Close()
}
