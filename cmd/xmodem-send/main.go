// Command xmodem-send transmits a file over XMODEM/XMODEM-1K.
package main

import (
	"fmt"
	"io"
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
		use1k       = pflag.BoolP("1k", "k", true, "Use 1024-byte (STX) blocks when possible, instead of 128-byte only.")
		textMode    = pflag.BoolP("text", "t", false, "Text mode: pad the final block with CTRL-Z rather than sending raw binary.")
		ymodemBlock = pflag.BoolP("ymodem-header", "y", false, "Send a YMODEM-style control block (filename/size/mtime/mode) before the file data.")
		configFile  = pflag.StringP("config-file", "c", "", "Optional YAML config file overriding defaults below.")
		metricsAddr = pflag.String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9100) until the transfer completes.")
		help        = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - send a file over XMODEM/XMODEM-1K.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}
	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one argument required: the file to send")
		pflag.Usage()
		os.Exit(2)
	}
	path := pflag.Arg(0)

	cfg, err := cliconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyOverrides(*device, *baud)

	log := cfg.Logger()

	f, err := os.Open(path)
	if err != nil {
		log.Error("open file", "path", path, "err", err)
		os.Exit(1)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		log.Error("stat file", "path", path, "err", err)
		os.Exit(1)
	}

	transport, closer, err := openTransport(cfg)
	if err != nil {
		log.Error("open transport", "err", err)
		os.Exit(1)
	}
	defer closer()

	rec := metrics.New("xmodem_send")
	prometheus.MustRegister(rec)
	if *metricsAddr != "" {
		stopMetrics := serveMetrics(*metricsAddr, log)
		defer stopMetrics()
	}

	engine := xmodem.NewEngine(transport, &xmodem.Config{
		Logger:   log,
		Recorder: rec,
	})

	if *ymodemBlock {
		cb := xmodem.ControlBlock{
			Name:    st.Name(),
			Size:    st.Size(),
			ModTime: st.ModTime(),
			Mode:    uint32(st.Mode().Perm()),
		}
		if _, err := engine.Transmit(xmodem.NewControlBlockSource(cb), 0, *use1k, true); err != nil {
			log.Error("control block transmit failed", "err", err)
			os.Exit(1)
		}
	}

	n, err := engine.Transmit(fileSource{f}, st.Size(), *use1k, !*textMode)
	if err != nil {
		log.Error("transmit failed", "bytesSent", n, "err", err)
		os.Exit(1)
	}
	log.Info("transmit complete", "bytesSent", n)
}

type fileSource struct {
	f *os.File
}

func (s fileSource) Fetch(buf []byte) error {
	_, err := io.ReadFull(s.f, buf)
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
