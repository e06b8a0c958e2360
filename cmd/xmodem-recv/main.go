// Command xmodem-recv receives a file over XMODEM/XMODEM-1K.
package main

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	xmodem "github.com/kvexar/goxmodem"
	"github.com/kvexar/goxmodem/internal/cliconfig"
	"github.com/kvexar/goxmodem/internal/metrics"
	"github.com/kvexar/goxmodem/internal/serialport"
	"github.com/kvexar/goxmodem/iotransport"
)

func main() {
	var (
		device      = pflag.StringP("device", "d", "", "Serial device, e.g. /dev/ttyUSB0. If empty, uses stdin/stdout as the transport.")
		baud        = pflag.IntP("baud", "b", 0, "Serial baud rate. 0 leaves the line's current speed alone.")
		wantCRC     = pflag.BoolP("crc", "r", true, "Request CRC-16 mode (falls back to checksum automatically if unsupported).")
		ymodemBlock = pflag.BoolP("ymodem-header", "y", false, "Expect a YMODEM-style control block before the file data, and use its declared size/name.")
		configFile  = pflag.StringP("config-file", "c", "", "Optional YAML config file overriding defaults below.")
		maxSize     = pflag.Int64P("max-size", "m", 0, "Reject transfers declaring more than this many bytes. 0 disables the check.")
		metricsAddr = pflag.String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9100) until the transfer completes.")
		help        = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - receive a file over XMODEM/XMODEM-1K.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <destination-file>\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}
	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one argument required: the destination file")
		pflag.Usage()
		os.Exit(2)
	}
	destPath := pflag.Arg(0)

	cfg, err := cliconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyOverrides(*device, *baud)

	log := cfg.Logger()

	transport, closer, err := openTransport(cfg)
	if err != nil {
		log.Error("open transport", "err", err)
		os.Exit(1)
	}
	defer closer()

	rec := metrics.New("xmodem_recv")
	prometheus.MustRegister(rec)
	if *metricsAddr != "" {
		stopMetrics := serveMetrics(*metricsAddr, log)
		defer stopMetrics()
	}

	engine := xmodem.NewEngine(transport, &xmodem.Config{
		MaxSize:  *maxSize,
		Logger:   log,
		Recorder: rec,
	})

	// Plain XMODEM carries no size header, so absent a control block we
	// accept blocks until EOT rather than truncating early; -max-size
	// still bounds how large that unbounded transfer may grow.
	expectedSize := int64(math.MaxInt64)
	if *maxSize > 0 {
		expectedSize = *maxSize
	}
	if *ymodemBlock {
		var cbSink xmodem.ControlBlockSink
		if _, err := engine.Receive(&cbSink, 0, *wantCRC); err != nil {
			log.Error("control block receive failed", "err", err)
			os.Exit(1)
		}
		log.Info("control block received", "name", cbSink.Received.Name, "size", cbSink.Received.Size)
		expectedSize = cbSink.Received.Size
	}

	f, err := os.Create(destPath)
	if err != nil {
		log.Error("create destination file", "path", destPath, "err", err)
		os.Exit(1)
	}
	defer f.Close()

	n, err := engine.Receive(fileSink{f}, expectedSize, *wantCRC)
	if err != nil {
		log.Error("receive failed", "bytesReceived", n, "err", err)
		os.Exit(1)
	}
	log.Info("receive complete", "bytesReceived", n)
}

type fileSink struct {
	f *os.File
}

func (s fileSink) Store(data []byte) error {
	_, err := s.f.Write(data)
	return err
}

func openTransport(cfg *cliconfig.Config) (xmodem.Transport, func(), error) {
	if cfg.Device == "" {
		t := iotransport.New(stdinout{})
		return t, func() { _ = t.Close() }, nil
	}
	p, err := serialport.Open(cfg.Device, cfg.Baud)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

type stdinout struct{}

func (stdinout) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdinout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func serveMetrics(addr string, log xmodem.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", "err", err)
		}
	}()
	return func() {
		t := time.Now()
		_ = srv.Close()
		log.Debug("metrics server stopped", "after", time.Since(t), "addr", addr)
	}
}
