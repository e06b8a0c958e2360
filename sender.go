package xmodem

import "time"

type senderState int

const (
	txAwaitSync senderState = iota
	txSendBlock
	txEnd
	txDone
)

// Transmit implements the transmitter state machine of spec.md §4.4.
//
// sourceSize == 0 means "send exactly one control block" (YMODEM-style);
// otherwise source is drained sequentially until sourceSize bytes have
// been fetched. use1k allows 1024-byte (STX) blocks when more than 128
// bytes remain; binaryMode suppresses the text-mode CTRL-Z terminator.
//
// On success it returns the number of bytes sent — rounded up to a
// block boundary on the last block, per spec.md §9's note that the
// reference implementation advances len by block_size (not the
// effective payload) on ACK. On failure it returns one of ErrCanceled,
// ErrNoSync, ErrTransmitFailed, or ErrNoACKAfterEOT.
func (e *Engine) Transmit(source Source, sourceSize int64, use1k bool, binaryMode bool) (int64, error) {
	if err := checkSize(sourceSize, &e.cfg); err != nil {
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

	packetNumber := byte(1)
	if sourceSize == 0 {
		packetNumber = 0
	}

	var (
		bytesSent int64
		mode      IntegrityMode
		state     = txAwaitSync
	)

	log.Debug("transmit starting", "cid", cid, "sourceSize", sourceSize, "use1k", use1k, "binary", binaryMode)

	for state != txDone {
		switch state {
		case txAwaitSync:
			found := false
			for retry := 0; retry < syncRetryLimit; retry++ {
				b, err := t.ReadByte(syncTimeoutMs * time.Millisecond)
				if err != nil {
					continue
				}
				switch b {
				case CRCSOH:
					mode = CRC16
					state = txSendBlock
				case NAK:
					mode = Checksum
					state = txSendBlock
				case CAN:
					if awaitSecondCAN(t) {
						_ = t.WriteByte(ACK)
						flushInput(t)
						log.Warn("transmit canceled by remote", "cid", cid)
						rec.Canceled()
						return bytesSent, ErrCanceled
					}
				}
				if state == txSendBlock {
					found = true
					break
				}
			}
			if found {
				continue
			}
			sendAbort(t)
			flushInput(t)
			log.Error("transmit sync failed: no reply from peer", "cid", cid)
			rec.Failed(StatusNoSync)
			return bytesSent, ErrNoSync

		case txSendBlock:
			blockSize := blockSize128
			if use1k && (sourceSize-bytesSent) > blockSize128 {
				blockSize = blockSize1024
			}

			target := sourceSize
			if sourceSize == 0 {
				target = int64(blockSize)
			}
			effective := target - bytesSent
			if effective > int64(blockSize) {
				effective = int64(blockSize)
			}

			// A control-block session (sourceSize == 0) pins target at
			// blockSize forever, so effective stays 0 forever once the
			// one control block has been sent; bytesSent > 0 is what
			// actually means "no more blocks remain to be attempted"
			// for that case, not effective alone.
			switch {
			case !(sourceSize == 0 && bytesSent > 0) && (effective > 0 || (!binaryMode && effective == 0)):
				payload := make([]byte, 0)
				if effective > 0 {
					payload = make([]byte, effective)
					if err := source.Fetch(payload); err != nil {
						return bytesSent, err
					}
				}
				packet := encodeBlock(packetNumber, payload, blockSize, mode, !binaryMode)

				acked := false
				for attempt := 0; attempt < maxRetrans; attempt++ {
					if err := writeBytes(t, packet); err != nil {
						return bytesSent, err
					}
					b, err := t.ReadByte(blockTimeoutMs * time.Millisecond)
					if err != nil {
						rec.Retry()
						continue
					}
					switch b {
					case ACK:
						packetNumber++
						bytesSent += int64(blockSize)
						rec.BlockAccepted(blockSize)
						acked = true
					case CAN:
						if awaitSecondCAN(t) {
							_ = t.WriteByte(ACK)
							flushInput(t)
							log.Warn("transmit canceled by remote", "cid", cid)
							rec.Canceled()
							return bytesSent, ErrCanceled
						}
						rec.Retry()
					default:
						rec.Retry()
					}
					if acked {
						break
					}
				}
				if !acked {
					sendAbort(t)
					flushInput(t)
					log.Error("transmit retry budget exhausted", "cid", cid)
					rec.Failed(StatusTransmitError)
					return bytesSent, ErrTransmitFailed
				}

			case sourceSize > 0:
				state = txEnd

			default:
				log.Info("control block sent", "cid", cid, "bytes", bytesSent)
				rec.Completed(int(bytesSent))
				return bytesSent, nil
			}

		case txEnd:
			acked := false
			for attempt := 0; attempt < maxEOTAttempts; attempt++ {
				_ = t.WriteByte(EOT)
				b, err := t.ReadByte(syncTimeoutMs * time.Millisecond)
				if err == nil && b == ACK {
					acked = true
					break
				}
			}
			if !acked {
				flushInput(t)
				log.Error("transmit got no ACK after EOT", "cid", cid)
				rec.Failed(StatusNoACKAfterEOT)
				return bytesSent, ErrNoACKAfterEOT
			}
			log.Info("transmit complete", "cid", cid, "bytes", bytesSent)
			rec.Completed(int(bytesSent))
			return bytesSent, nil
		}
	}

	return bytesSent, nil
}
