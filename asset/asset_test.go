package asset_test

import (
	"io/fs"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/rogpeppe/liveplot/asset"
)

func TestData(t *testing.T) {
	c := qt.New(t)
	index, err := fs.ReadFile(asset.Data(), "index.html")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(string(index), `src="/static/liveplot.js"`), qt.IsTrue)

	_, err = fs.Stat(asset.Data(), "static/liveplot.js")
	c.Assert(err, qt.IsNil)
}

func TestStatic(t *testing.T) {
	c := qt.New(t)
	_, err := fs.Stat(asset.Static(), "liveplot.js")
	c.Assert(err, qt.IsNil)

	// Templates are not static.
	_, err = fs.Stat(asset.Static(), "index.html")
	c.Assert(err, qt.Not(qt.IsNil))
}
