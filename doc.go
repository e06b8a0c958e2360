// Package xmodem implements the XMODEM and XMODEM-1K file-transfer
// protocols: sender and receiver state machines, block framing,
// checksum/CRC-16 integrity, retry and cancellation handling, and a
// single-packet YMODEM-style control-block exchange.
//
// The package is transport-agnostic: callers inject a Transport (a
// blocking byte reader with timeout plus a non-blocking byte writer)
// and, optionally, a Sink/Source for the data stream. No socket,
// serial port, or file I/O lives in this package; see internal/serialport
// and iotransport for concrete transports, and cmd/xmodem-send /
// cmd/xmodem-recv for a runnable CLI built on top of it.
package xmodem
