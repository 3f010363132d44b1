// Package plotconfig defines the configuration file
// format for the liveplot command.
package plotconfig

import (
	"io/ioutil"
	"math"
	"time"

	errgo "gopkg.in/errgo.v1"
	yaml "gopkg.in/yaml.v2"
)

// Default values for fields left unset.
const (
	DefaultListenAddr   = "localhost:8089"
	DefaultPollInterval = time.Second
	DefaultSettleDelay  = 10 * time.Millisecond
	DefaultLog          = "<root>=INFO"
)

// Config holds the liveplot configuration. An example file:
//
//	data-file: /tmp/feed.txt
//	length: 100
//	y-min: -2
//	y-max: 2
//	poll-interval: 500ms
//	history-path: /var/lib/liveplot/frames.db
type Config struct {
	// DataFile holds the path of the file to watch.
	DataFile string `yaml:"data-file"`
	// Length holds the number of points in the plot.
	Length int `yaml:"length"`
	// Title is shown above the plot.
	Title string `yaml:"title"`
	// ListenAddr holds the HTTP listen address.
	ListenAddr string `yaml:"listen-addr"`
	// PollInterval is how long to wait before looking again
	// when the data file has no watermark.
	PollInterval time.Duration `yaml:"poll-interval"`
	// SettleDelay is how long to wait after seeing a new
	// watermark before reading the data.
	SettleDelay time.Duration `yaml:"settle-delay"`
	// YMin and YMax hold the Y axis bounds. When both are
	// zero, the plot's default bounds are used.
	YMin float64 `yaml:"y-min"`
	YMax float64 `yaml:"y-max"`
	// StrictWatermark causes a watermark equal to the previous
	// one to be ignored.
	StrictWatermark bool `yaml:"strict-watermark"`
	// Accumulate causes all the data lines to be plotted
	// end to end rather than just the last one.
	Accumulate bool `yaml:"accumulate"`
	// Watch enables file change notifications.
	Watch bool `yaml:"watch"`
	// HistoryPath holds the path of the frame history
	// database. If it's empty, no history is kept.
	HistoryPath string `yaml:"history-path"`
	// Log holds the logging configuration in
	// loggo.ConfigureLoggers format.
	Log string `yaml:"log"`
}

// Load reads the configuration from the given file.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errgo.Mask(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errgo.Notef(err, "bad configuration in %q", path)
	}
	return cfg, nil
}

// Parse parses the configuration from YAML data. Unknown fields are
// an error. Default values are filled in for unset fields, and the
// fields that are set are checked, but the configuration need not be
// complete; see Validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, errgo.Mask(err)
	}
	cfg.SetDefaults()
	if err := cfg.check(); err != nil {
		return nil, errgo.Mask(err)
	}
	return &cfg, nil
}

// SetDefaults fills in default values for unset fields.
func (cfg *Config) SetDefaults() {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Log == "" {
		cfg.Log = DefaultLog
	}
}

// Validate checks that the configuration is complete and consistent.
func (cfg *Config) Validate() error {
	if cfg.DataFile == "" {
		return errgo.New("no data file specified")
	}
	if cfg.Length <= 0 {
		return errgo.Newf("plot length must be positive, not %d", cfg.Length)
	}
	return errgo.Mask(cfg.check())
}

func (cfg *Config) check() error {
	if cfg.Length < 0 {
		return errgo.Newf("plot length must be positive, not %d", cfg.Length)
	}
	if cfg.PollInterval < 0 {
		return errgo.Newf("negative poll interval %v", cfg.PollInterval)
	}
	if cfg.SettleDelay < 0 {
		return errgo.Newf("negative settle delay %v", cfg.SettleDelay)
	}
	if (cfg.YMin != 0 || cfg.YMax != 0) && !(cfg.YMin < cfg.YMax && !math.IsInf(cfg.YMin, 0) && !math.IsInf(cfg.YMax, 0)) {
		return errgo.Newf("invalid Y bounds [%g, %g]", cfg.YMin, cfg.YMax)
	}
	return nil
}
