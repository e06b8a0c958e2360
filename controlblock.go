package xmodem

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ControlBlock carries file metadata in the single YMODEM-style block 0
// exchange of spec.md §3 (sent/received whenever sourceSize/requestedSize
// is 0). It is deliberately a subset of the teacher's FileInfo shape:
// no files-remaining/bytes-remaining batch fields, since a control block
// here always precedes exactly one data session.
type ControlBlock struct {
	Name    string
	Size    int64
	ModTime time.Time
	Mode    uint32
}

// MarshalControlBlock encodes cb into a zero-padded blockSize-byte
// region: <filename>\0<size> <modtime(octal)> <mode(octal)>\0, followed
// by zero padding. Format grounded on the teacher's marshalFileInfo,
// trimmed to the fields spec.md §3 actually defines.
func MarshalControlBlock(cb ControlBlock, blockSize int) ([]byte, error) {
	name := strings.ReplaceAll(cb.Name, "\\", "/")
	name = filepath.Base(name)

	var meta strings.Builder
	fmt.Fprintf(&meta, "%d", cb.Size)
	if !cb.ModTime.IsZero() {
		fmt.Fprintf(&meta, " %o", cb.ModTime.Unix())
	} else {
		meta.WriteString(" 0")
	}
	fmt.Fprintf(&meta, " %o", cb.Mode)

	body := make([]byte, 0, len(name)+1+meta.Len()+1)
	body = append(body, []byte(name)...)
	body = append(body, 0)
	body = append(body, []byte(meta.String())...)
	body = append(body, 0)

	if len(body) > blockSize {
		return nil, fmt.Errorf("xmodem: control block metadata (%d bytes) exceeds block size %d", len(body), blockSize)
	}
	out := make([]byte, blockSize)
	copy(out, body)
	return out, nil
}

// ParseControlBlock decodes a control block's padded data region back
// into a ControlBlock. An all-zero region (the YMODEM batch terminator,
// not used by this package but recognized for interop) yields a zero
// ControlBlock and no error.
func ParseControlBlock(data []byte) (ControlBlock, error) {
	var cb ControlBlock

	nullIdx := -1
	for i, b := range data {
		if b == 0 {
			nullIdx = i
			break
		}
	}
	if nullIdx < 0 {
		return cb, fmt.Errorf("xmodem: control block missing null terminator after filename")
	}
	cb.Name = string(data[:nullIdx])
	if cb.Name == "" {
		return ControlBlock{}, nil
	}

	rest := data[nullIdx+1:]
	for len(rest) > 0 && rest[len(rest)-1] == 0 {
		rest = rest[:len(rest)-1]
	}
	fields := strings.Fields(string(rest))

	if len(fields) > 0 {
		if size, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
			cb.Size = size
		}
	}
	if len(fields) > 1 {
		if mtime, err := strconv.ParseInt(fields[1], 8, 64); err == nil && mtime > 0 {
			cb.ModTime = time.Unix(mtime, 0)
		}
	}
	if len(fields) > 2 {
		if mode, err := strconv.ParseUint(fields[2], 8, 32); err == nil {
			cb.Mode = uint32(mode)
		}
	}

	return cb, nil
}

// ControlBlockSink decodes exactly one control block and reports it via
// Received. Pass it to Engine.Receive with requestedSize == 0.
type ControlBlockSink struct {
	Received ControlBlock
}

func (s *ControlBlockSink) Store(data []byte) error {
	cb, err := ParseControlBlock(data)
	if err != nil {
		return err
	}
	s.Received = cb
	return nil
}

// ControlBlockSource serves a single pre-marshaled control block. Pass
// it to Engine.Transmit with sourceSize == 0.
type ControlBlockSource struct {
	cb     ControlBlock
	served bool
}

func NewControlBlockSource(cb ControlBlock) *ControlBlockSource {
	return &ControlBlockSource{cb: cb}
}

func (s *ControlBlockSource) Fetch(buf []byte) error {
	if s.served {
		return fmt.Errorf("xmodem: control block source already served")
	}
	encoded, err := MarshalControlBlock(s.cb, len(buf))
	if err != nil {
		return err
	}
	copy(buf, encoded)
	s.served = true
	return nil
}
