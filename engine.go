package xmodem

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// Recorder observes engine events for metrics/telemetry purposes. All
// methods are best-effort and must not block meaningfully; a nil
// Recorder is replaced by a no-op at construction so the engine never
// branches on whether metrics are enabled. See internal/metrics for a
// Prometheus-backed implementation.
type Recorder interface {
	BlockAccepted(blockSize int)
	Retry()
	Downgraded()
	Canceled()
	Completed(bytes int)
	Failed(code StatusCode)
}

type noopRecorder struct{}

func (noopRecorder) BlockAccepted(int) {}
func (noopRecorder) Retry()            {}
func (noopRecorder) Downgraded()       {}
func (noopRecorder) Canceled()         {}
func (noopRecorder) Completed(int)     {}
func (noopRecorder) Failed(StatusCode) {}

// Config controls engine behavior beyond the wire-level constants the
// spec fixes outright (MAXRETRANS, timeouts, retry counts are not
// configurable — they are part of the protocol's bit-exact contract).
type Config struct {
	// MaxSize bounds requestedSize/sourceSize. 0 means no bound beyond
	// the int64 range. See spec.md §9's open question on `register int
	// count`: rather than guessing intent near the overflow boundary,
	// sizes above MaxSize (when set) are rejected outright.
	MaxSize int64

	// Logger receives structured progress/diagnostic events. Defaults
	// to defaultLogger() when nil.
	Logger Logger

	// Recorder observes retry/downgrade/completion events for metrics.
	// Defaults to a no-op when nil.
	Recorder Recorder
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = defaultLogger()
	}
	if c.Recorder == nil {
		c.Recorder = noopRecorder{}
	}
}

// Engine drives one Transport through the receiver or transmitter state
// machine. It is not safe for concurrent Receive/Transmit calls on the
// same Engine — like the reference implementation, each call owns the
// transport for its duration. A second call made while one is already
// in flight fails fast with ErrSessionBusy rather than racing the
// transport.
type Engine struct {
	transport Transport
	cfg       Config
	busy      atomic.Bool
}

// NewEngine creates an Engine over the given transport. A nil cfg is
// equivalent to a zero Config.
func NewEngine(transport Transport, cfg *Config) *Engine {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c.defaults()
	return &Engine{transport: transport, cfg: c}
}

// acquire claims exclusive use of the engine for one Receive/Transmit
// call, returning ErrSessionBusy if another call already owns it.
func (e *Engine) acquire() error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrSessionBusy
	}
	return nil
}

// release gives up exclusive use of the engine, acquired via acquire.
func (e *Engine) release() {
	e.busy.Store(false)
}

// newCorrelationID returns a short opaque ID to tag every log line of
// one Receive/Transmit call, so concurrent or sequential transfers can
// be told apart in aggregated logs.
func newCorrelationID() string {
	return xid.New().String()
}

func checkSize(size int64, cfg *Config) error {
	if size < 0 {
		return ErrSizeOutOfRange
	}
	if cfg.MaxSize > 0 && size > cfg.MaxSize {
		return ErrSizeOutOfRange
	}
	return nil
}
