// The liveplot command watches a data file and serves a live plot of
// its contents over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"

	"github.com/rogpeppe/liveplot/figure"
	"github.com/rogpeppe/liveplot/framestore"
	"github.com/rogpeppe/liveplot/plotconfig"
	"github.com/rogpeppe/liveplot/plotserver"
	"github.com/rogpeppe/liveplot/plotworker"
)

var logger = loggo.GetLogger("liveplot")

var (
	configFile      = flag.String("config", "", "YAML configuration file")
	listenAddr      = flag.String("http", plotconfig.DefaultListenAddr, "HTTP listen address")
	pollInterval    = flag.Duration("poll", plotconfig.DefaultPollInterval, "how long to wait when the data file has no watermark")
	settleDelay     = flag.Duration("settle", plotconfig.DefaultSettleDelay, "how long to wait after a new watermark before reading the data")
	strictWatermark = flag.Bool("strict", false, "ignore data with the same watermark as the last plotted data")
	accumulate      = flag.Bool("accumulate", false, "plot all data lines end to end instead of just the last")
	watch           = flag.Bool("watch", false, "wait for file change notifications between reads")
	historyPath     = flag.String("history", "", "record plotted frames in this database file")
	logConfig       = flag.String("log", plotconfig.DefaultLog, "logging configuration")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: liveplot [flags] <path> <length>\n")
		fmt.Fprintf(os.Stderr, "Plots the last line of numbers in the data file at path, redrawing whenever\n")
		fmt.Fprintf(os.Stderr, "the watermark on its first line changes. The plot is served over HTTP.\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	cfg, ok, err := loadConfig(flag.Args(), *configFile, applyFlags)
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		// Anything else is silently ignored.
		return
	}
	if err := loggo.ConfigureLoggers(cfg.Log); err != nil {
		log.Fatalf("bad log configuration: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
	logger.Infof("liveplot terminated")
}

// loadConfig returns the configuration to use for the given command line
// arguments. The arguments must be a data file path and a plot length or,
// when configFile is set, there may be none at all. If the arguments are
// not of that form, loadConfig returns false and the command should do
// nothing. If override is non-nil, it's called to adjust the configuration
// before defaults are filled in and the result is validated.
func loadConfig(args []string, configFile string, override func(*plotconfig.Config)) (*plotconfig.Config, bool, error) {
	switch {
	case len(args) == 2:
	case len(args) == 0 && configFile != "":
	default:
		return nil, false, nil
	}
	cfg := &plotconfig.Config{}
	if configFile != "" {
		var err error
		cfg, err = plotconfig.Load(configFile)
		if err != nil {
			return nil, false, errgo.Mask(err)
		}
	}
	if len(args) == 2 {
		length, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, false, errgo.Newf("invalid plot length %q", args[1])
		}
		cfg.DataFile = args[0]
		cfg.Length = length
	}
	if override != nil {
		override(cfg)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, false, errgo.Mask(err)
	}
	return cfg, true, nil
}

// applyFlags overrides configuration values with
// any flags set on the command line.
func applyFlags(cfg *plotconfig.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http":
			cfg.ListenAddr = *listenAddr
		case "poll":
			cfg.PollInterval = *pollInterval
		case "settle":
			cfg.SettleDelay = *settleDelay
		case "strict":
			cfg.StrictWatermark = *strictWatermark
		case "accumulate":
			cfg.Accumulate = *accumulate
		case "watch":
			cfg.Watch = *watch
		case "history":
			cfg.HistoryPath = *historyPath
		case "log":
			cfg.Log = *logConfig
		}
	})
}

func run(cfg *plotconfig.Config) error {
	fig, err := figure.New(figure.Params{
		Length: cfg.Length,
		YMin:   cfg.YMin,
		YMax:   cfg.YMax,
		Title:  cfg.Title,
	})
	if err != nil {
		return errgo.Mask(err)
	}
	defer fig.Close()

	wp := plotworker.Params{
		Path:            cfg.DataFile,
		Figure:          fig,
		PollInterval:    cfg.PollInterval,
		SettleDelay:     cfg.SettleDelay,
		StrictWatermark: cfg.StrictWatermark,
		Accumulate:      cfg.Accumulate,
		Watch:           cfg.Watch,
	}
	sp := plotserver.Params{
		Figure:   fig,
		DataFile: cfg.DataFile,
	}
	if cfg.HistoryPath != "" {
		store, err := framestore.Open(cfg.HistoryPath)
		if err != nil {
			return errgo.Mask(err)
		}
		defer store.Close()
		wp.Recorder = store
		sp.Frames = store
	}
	h, err := plotserver.New(sp)
	if err != nil {
		return errgo.Mask(err)
	}
	w, err := plotworker.New(wp)
	if err != nil {
		return errgo.Mask(err)
	}
	defer w.Close()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		serverErr <- srv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case sig := <-sigc:
		logger.Infof("received %v; shutting down", sig)
	case <-w.Done():
		return errgo.Mask(w.Wait(), errgo.Any)
	case err := <-serverErr:
		return errgo.Notef(err, "HTTP server failed")
	}
	// Release websocket clients before waiting for the server.
	fig.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warningf("cannot shut down HTTP server cleanly: %v", err)
	}
	return errgo.Mask(w.Close())
}
