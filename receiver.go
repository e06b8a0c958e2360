package xmodem

import "time"

type receiverState int

const (
	rxSync receiverState = iota
	rxRecvBlock
	rxDone
)

// Receive implements the receiver state machine of spec.md §4.3.
//
// requestedSize == 0 means "receive exactly one control block"
// (single-packet YMODEM-style exchange); otherwise bytes are delivered
// to sink until EOT or requestedSize is reached. wantCRC requests
// CRC-16 mode; the receiver may downgrade to checksum after 16 failed
// sync probes.
//
// On success it returns the number of bytes delivered to sink. Each
// accepted block is truncated so that no more than requestedSize bytes
// are delivered in total; for requestedSize == 0 the single control
// block is delivered whole, so the count is its block size.
// On failure it returns one of ErrCanceled, ErrSyncFailed, or
// ErrTooManyRetries, each satisfying errors.Is against the matching
// sentinel.
func (e *Engine) Receive(sink Sink, requestedSize int64, wantCRC bool) (int64, error) {
	if err := checkSize(requestedSize, &e.cfg); err != nil {
		return 0, err
	}
	if err := e.acquire(); err != nil {
		return 0, err
	}
	defer e.release()

	cid := newCorrelationID()
	log := e.cfg.Logger
	rec := e.cfg.Recorder
	t := e.transport

	controlBlock := requestedSize == 0
	packetNumber := byte(1)
	if controlBlock {
		packetNumber = 0
	}

	mode := Checksum
	if wantCRC {
		mode = CRC16
	}

	var (
		bytesDelivered int64
		retransBudgetN = retransBudget
		blockSize      int
		state          = rxSync
		probing        = true // cleared once the first leader byte ever arrives
	)

	log.Debug("receive starting", "cid", cid, "requestedSize", requestedSize, "crc", wantCRC, "control", controlBlock)

	for state != rxDone {
		switch state {
		case rxSync:
			// Every entry into SYNC gets a fresh syncRetryLimit-attempt
			// budget, matching the reference implementation's outer
			// for(;;) loop re-initializing its inner retry counter.
			found := false
			for retry := 0; retry < syncRetryLimit; retry++ {
				if probing {
					_ = t.WriteByte(mode.SyncByte())
				}
				b, err := t.ReadByte(syncTimeoutMs * time.Millisecond)
				if err != nil {
					continue
				}

				switch b {
				case SOH:
					blockSize = blockSize128
					probing = false
					state = rxRecvBlock
				case STX:
					blockSize = blockSize1024
					probing = false
					state = rxRecvBlock
				case EOT:
					_ = t.WriteByte(ACK)
					log.Info("receive complete (EOT)", "cid", cid, "bytes", bytesDelivered)
					rec.Completed(int(bytesDelivered))
					return bytesDelivered, nil
				case CAN:
					if awaitSecondCAN(t) {
						flushInput(t)
						_ = t.WriteByte(ACK)
						log.Warn("receive canceled by remote", "cid", cid)
						rec.Canceled()
						return bytesDelivered, ErrCanceled
					}
				}
				if state == rxRecvBlock {
					found = true
					break
				}
			}

			if found {
				continue
			}

			// Exhausted syncRetryLimit attempts with no usable reply.
			// Downgrading only applies while still actively probing in
			// CRC mode — once the first leader byte has ever arrived,
			// probing is permanently cleared and any further exhaustion
			// is a hard sync failure, matching the reference
			// implementation's trychar handling.
			if probing && mode == CRC16 {
				mode = Checksum
				log.Info("downgrading to checksum mode after sync timeout", "cid", cid)
				rec.Downgraded()
				continue
			}
			sendAbort(t)
			log.Error("receive sync failed", "cid", cid)
			rec.Failed(StatusSyncError)
			return bytesDelivered, ErrSyncFailed

		case rxRecvBlock:
			body := make([]byte, 2+blockSize+mode.TrailerSize())
			ok := true
			for i := range body {
				b, err := t.ReadByte(blockTimeoutMs * time.Millisecond)
				if err != nil {
					ok = false
					break
				}
				body[i] = b
			}
			if !ok {
				flushInput(t)
				_ = t.WriteByte(NAK)
				rec.Retry()
				state = rxSync
				continue
			}

			data, result, err := decodeBlock(body, blockSize, mode, packetNumber)
			if err != nil || result == corrupt {
				flushInput(t)
				_ = t.WriteByte(NAK)
				rec.Retry()
				state = rxSync
				continue
			}

			if result == accept {
				remaining := requestedSize - bytesDelivered
				n := int64(blockSize)
				if !controlBlock && n > remaining {
					n = remaining
				}
				if n > 0 {
					if err := sink.Store(data[:n]); err != nil {
						sendAbort(t)
						return bytesDelivered, err
					}
					bytesDelivered += n
				}
				packetNumber++
				retransBudgetN = retransBudget
				rec.BlockAccepted(blockSize)
			}

			retransBudgetN--
			if retransBudgetN <= 0 {
				sendAbort(t)
				log.Error("receive retransmit budget exhausted", "cid", cid)
				rec.Failed(StatusTooManyRetries)
				return bytesDelivered, ErrTooManyRetries
			}

			_ = t.WriteByte(ACK)

			if controlBlock {
				log.Info("control block received", "cid", cid, "bytes", bytesDelivered)
				rec.Completed(int(bytesDelivered))
				return bytesDelivered, nil
			}
			state = rxSync
		}
	}

	return bytesDelivered, nil
}
