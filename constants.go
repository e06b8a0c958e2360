package xmodem

// Control bytes, bit-exact per the classic XMODEM/XMODEM-1K wire protocol.
const (
	SOH    = 0x01 // start of 128-byte block
	STX    = 0x02 // start of 1024-byte block
	EOT    = 0x04 // end of transmission
	ACK    = 0x06 // acknowledge
	NAK    = 0x15 // negative acknowledge / request checksum mode
	CAN    = 0x18 // cancel
	CTRLZ  = 0x1A // text-mode padding terminator
	CRCSOH = 0x43 // 'C' — request CRC-16 mode
)

// Block sizes in bytes, excluding the 3-byte header and trailer.
const (
	blockSize128  = 128
	blockSize1024 = 1024
)

// dly1s is the reference unit from the original implementation: most
// timeouts are expressed as a multiple of it.
const dly1s = 1000 // milliseconds

const (
	syncRetryLimit = 16          // SYNC / AWAIT_SYNC retries before downgrade or giving up
	maxRetrans     = 25          // MAXRETRANS: sender's per-block retry ceiling
	retransBudget  = maxRetrans + 1
	maxEOTAttempts = 10

	flushTimeoutMs  = (dly1s * 3) >> 1 // 1.5s, used by flushInput
	syncTimeoutMs   = dly1s * 2        // 2s, SYNC / AWAIT_SYNC / END wait
	blockTimeoutMs  = dly1s            // 1s, per-byte read during RECV_BLOCK / reply wait
	doubleCANWaitMs = dly1s            // 1s, wait for the second CAN of a cancel
)

// canAbortSequence is "CAN CAN CAN", sent to politely terminate the peer
// after an unrecoverable local error.
var canAbortSequence = [3]byte{CAN, CAN, CAN}
