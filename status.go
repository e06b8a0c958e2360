package xmodem

import "fmt"

// StatusCode preserves the historical negative-return-code contract of
// spec.md §4.5 for callers that bridge to code expecting an integer
// status, while idiomatic callers use errors.Is/errors.As on the
// returned error instead.
type StatusCode int

const (
	// StatusCanceled: remote peer sent CAN CAN.
	StatusCanceled StatusCode = -1
	// StatusSyncError: receiver exhausted sync retries in checksum mode.
	StatusSyncError StatusCode = -2
	// StatusTooManyRetries: receiver's retransmit budget exhausted.
	StatusTooManyRetries StatusCode = -3
	// StatusTransmitError: sender's retry budget exhausted.
	StatusTransmitError StatusCode = -4
	// StatusNoACKAfterEOT: sender got no ACK after EOT.
	StatusNoACKAfterEOT StatusCode = -5
	// StatusNoSync: sender exhausted sync retries with no peer reply.
	// spec.md §4.5 assigns -2 to "sync failure" for both directions
	// (receiver or transmitter), matching original_source/xmodem.c
	// where xmodemReceive's sync-error path and xmodemTransmit's
	// no-sync path both `return -2`.
	StatusNoSync = StatusSyncError
)

// String renders the status the way the historical API reported it: a
// bare negative integer.
func (c StatusCode) String() string {
	return fmt.Sprintf("%d", int(c))
}

// StatusError wraps a terminal, unrecoverable protocol condition.
// Code() recovers the historical integer. The engine always returns
// one of the package-level sentinels below directly (never a copy),
// so plain errors.Is pointer-identity comparison already distinguishes
// ErrSyncFailed from ErrNoSync even though both carry StatusCode -2 —
// no custom Is method is needed, and adding one would make the two
// indistinguishable by accident.
type StatusError struct {
	Code StatusCode
	msg  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("xmodem: %s (code %d)", e.msg, int(e.Code))
}

func newStatusError(code StatusCode, msg string) *StatusError {
	return &StatusError{Code: code, msg: msg}
}

// Sentinels usable with errors.Is (by identity - see StatusError above).
var (
	ErrCanceled       = newStatusError(StatusCanceled, "canceled by remote")
	ErrSyncFailed     = newStatusError(StatusSyncError, "sync failed")
	ErrTooManyRetries = newStatusError(StatusTooManyRetries, "retransmit budget exhausted")
	ErrTransmitFailed = newStatusError(StatusTransmitError, "transmit retry budget exhausted")
	ErrNoACKAfterEOT  = newStatusError(StatusNoACKAfterEOT, "no ACK after EOT")
	ErrNoSync         = newStatusError(StatusNoSync, "no sync reply from peer")
	ErrSessionBusy    = fmt.Errorf("xmodem: session already active")
	ErrSizeOutOfRange = fmt.Errorf("xmodem: requested/source size out of range")
)
