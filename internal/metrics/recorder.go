// Package metrics implements xmodem.Recorder with Prometheus counters,
// following the Collector-that-owns-its-own-state shape of the
// TCPInfoCollector in runZeroInc-sockstats's pkg/exporter/exporter.go:
// a struct of pre-registered metric handles plus an Add/Remove-style
// API, here reduced to plain increment calls since transfers (unlike
// long-lived TCP connections) don't need per-entity bookkeeping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	xmodem "github.com/kvexar/goxmodem"
)

// Recorder implements xmodem.Recorder, exposing transfer counters for
// scraping. Register it with a prometheus.Registerer via MustRegister
// or Describe/Collect directly.
type Recorder struct {
	blocks      *prometheus.CounterVec
	retries     prometheus.Counter
	downgrades  prometheus.Counter
	cancels     prometheus.Counter
	completions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// New builds a Recorder with metric names under the given namespace
// (e.g. "xmodem"). Call prometheus.MustRegister(r) (or register against
// a custom prometheus.Registry) to expose it.
func New(namespace string) *Recorder {
	return &Recorder{
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_accepted_total",
			Help:      "Blocks accepted, partitioned by wire block size.",
		}, []string{"block_size"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Block retries issued (NAKed or timed-out blocks).",
		}),
		downgrades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crc_downgrades_total",
			Help:      "Times a receiver downgraded from CRC-16 to checksum mode.",
		}),
		cancels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Transfers canceled by the remote peer (CAN CAN).",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Transfers that completed successfully, by byte-count bucket.",
		}, []string{"bucket"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Transfers that failed, partitioned by status code.",
		}, []string{"code"}),
	}
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	r.blocks.Describe(ch)
	ch <- r.retries.Desc()
	ch <- r.downgrades.Desc()
	ch <- r.cancels.Desc()
	r.completions.Describe(ch)
	r.failures.Describe(ch)
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	r.blocks.Collect(ch)
	ch <- r.retries
	ch <- r.downgrades
	ch <- r.cancels
	r.completions.Collect(ch)
	r.failures.Collect(ch)
}

func (r *Recorder) BlockAccepted(blockSize int) {
	r.blocks.WithLabelValues(blockSizeLabel(blockSize)).Inc()
}

func (r *Recorder) Retry() { r.retries.Inc() }

func (r *Recorder) Downgraded() { r.downgrades.Inc() }

func (r *Recorder) Canceled() { r.cancels.Inc() }

func (r *Recorder) Completed(bytes int) {
	r.completions.WithLabelValues(sizeBucket(bytes)).Inc()
}

func (r *Recorder) Failed(code xmodem.StatusCode) {
	r.failures.WithLabelValues(code.String()).Inc()
}

func blockSizeLabel(blockSize int) string {
	if blockSize == 1024 {
		return "1024"
	}
	return "128"
}

func sizeBucket(bytes int) string {
	switch {
	case bytes < 1<<10:
		return "lt_1k"
	case bytes < 1<<20:
		return "lt_1m"
	default:
		return "ge_1m"
	}
}

var (
	_ prometheus.Collector = (*Recorder)(nil)
	_ xmodem.Recorder      = (*Recorder)(nil)
)
