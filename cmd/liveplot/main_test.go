package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/rogpeppe/liveplot/plotconfig"
)

var loadConfigTests = []struct {
	testName    string
	args        []string
	config      string
	override    func(*plotconfig.Config)
	expectOK    bool
	expectError string
	expectCfg   *plotconfig.Config
}{{
	testName: "no-args",
}, {
	testName: "one-arg",
	args:     []string{"feed"},
}, {
	testName: "three-args",
	args:     []string{"feed", "10", "extra"},
}, {
	testName: "three-args-bad-length",
	args:     []string{"feed", "ten", "extra"},
}, {
	testName: "path-and-length",
	args:     []string{"feed", "10"},
	expectOK: true,
	expectCfg: &plotconfig.Config{
		DataFile:     "feed",
		Length:       10,
		ListenAddr:   plotconfig.DefaultListenAddr,
		PollInterval: plotconfig.DefaultPollInterval,
		SettleDelay:  plotconfig.DefaultSettleDelay,
		Log:          plotconfig.DefaultLog,
	},
}, {
	testName:    "non-integer-length",
	args:        []string{"feed", "ten"},
	expectError: `invalid plot length "ten"`,
}, {
	testName:    "zero-length",
	args:        []string{"feed", "0"},
	expectError: `plot length must be positive, not 0`,
}, {
	testName:    "negative-length",
	args:        []string{"feed", "-3"},
	expectError: `plot length must be positive, not -3`,
}, {
	testName: "config-only",
	config:   "data-file: /tmp/feed\nlength: 5\nstrict-watermark: true\n",
	expectOK: true,
	expectCfg: &plotconfig.Config{
		DataFile:        "/tmp/feed",
		Length:          5,
		StrictWatermark: true,
		ListenAddr:      plotconfig.DefaultListenAddr,
		PollInterval:    plotconfig.DefaultPollInterval,
		SettleDelay:     plotconfig.DefaultSettleDelay,
		Log:             plotconfig.DefaultLog,
	},
}, {
	testName: "args-override-config",
	args:     []string{"other", "7"},
	config:   "data-file: /tmp/feed\nlength: 5\npoll-interval: 2s\n",
	expectOK: true,
	expectCfg: &plotconfig.Config{
		DataFile:     "other",
		Length:       7,
		ListenAddr:   plotconfig.DefaultListenAddr,
		PollInterval: 2 * time.Second,
		SettleDelay:  plotconfig.DefaultSettleDelay,
		Log:          plotconfig.DefaultLog,
	},
}, {
	testName:    "incomplete-config",
	config:      "length: 5\n",
	expectError: `no data file specified`,
}, {
	testName:    "bad-config",
	config:      "length: lots\n",
	expectError: `bad configuration in "[^"]*": (.|\n)*`,
}, {
	testName: "one-arg-with-config",
	args:     []string{"feed"},
	config:   "data-file: /tmp/feed\nlength: 5\n",
}, {
	testName: "override",
	args:     []string{"feed", "3"},
	override: func(cfg *plotconfig.Config) {
		cfg.ListenAddr = ":9999"
		cfg.Accumulate = true
	},
	expectOK: true,
	expectCfg: &plotconfig.Config{
		DataFile:     "feed",
		Length:       3,
		Accumulate:   true,
		ListenAddr:   ":9999",
		PollInterval: plotconfig.DefaultPollInterval,
		SettleDelay:  plotconfig.DefaultSettleDelay,
		Log:          plotconfig.DefaultLog,
	},
}}

func TestLoadConfig(t *testing.T) {
	c := qt.New(t)
	for _, test := range loadConfigTests {
		c.Run(test.testName, func(c *qt.C) {
			configFile := ""
			if test.config != "" {
				configFile = filepath.Join(c.TempDir(), "liveplot.yaml")
				err := ioutil.WriteFile(configFile, []byte(test.config), 0666)
				c.Assert(err, qt.IsNil)
			}
			cfg, ok, err := loadConfig(test.args, configFile, test.override)
			if test.expectError != "" {
				c.Assert(err, qt.ErrorMatches, test.expectError)
				c.Assert(ok, qt.IsFalse)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.Equals, test.expectOK)
			if !test.expectOK {
				c.Assert(cfg, qt.IsNil)
				return
			}
			c.Assert(cfg, qt.DeepEquals, test.expectCfg)
		})
	}
}
