package dbprobe_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/rogpeppe/liveplot/dbprobe"
)

func TestDefaultString(t *testing.T) {
	c := qt.New(t)
	c.Assert(dbprobe.Default.String(), qt.Equals, `Driver={ODBC Driver 17 for SQL Server};Server=(localdb)\MSSQLLocalDB;Database=Training_data;`)
}

func TestStringMasksPassword(t *testing.T) {
	c := qt.New(t)
	d := dbprobe.Default
	d.UID = "trainer"
	d.PWD = "hunter2"
	c.Assert(d.String(), qt.Equals, `Driver={ODBC Driver 17 for SQL Server};Server=(localdb)\MSSQLLocalDB;Database=Training_data;UID=trainer;PWD=****;`)
	c.Assert(d.ODBC(), qt.Equals, `Driver={ODBC Driver 17 for SQL Server};Server=(localdb)\MSSQLLocalDB;Database=Training_data;UID=trainer;PWD=hunter2;`)
}

var parseDescriptorTests = []struct {
	testName    string
	s           string
	expect      dbprobe.Descriptor
	expectError string
}{{
	testName: "default",
	s:        `Driver={ODBC Driver 17 for SQL Server};Server=(localdb)\MSSQLLocalDB;Database=Training_data;`,
	expect:   dbprobe.Default,
}, {
	testName: "case-insensitive-keys",
	s:        `DRIVER={PostgreSQL Unicode}; server = db.example.com,5432 ; database=stats;Uid=bob;pwd=x`,
	expect: dbprobe.Descriptor{
		Driver:   "PostgreSQL Unicode",
		Server:   "db.example.com,5432",
		Database: "stats",
		UID:      "bob",
		PWD:      "x",
	},
}, {
	testName: "braced-values",
	s:        `Driver={DuckDB};Database={/tmp/a;b}}c.db};PWD={ spaced };`,
	expect: dbprobe.Descriptor{
		Driver:   "DuckDB",
		Database: "/tmp/a;b}c.db",
		PWD:      " spaced ",
	},
}, {
	testName: "trusted-connection",
	s:        `Driver={SQL Server};Server=here;Trusted_Connection=Yes`,
	expect: dbprobe.Descriptor{
		Driver:            "SQL Server",
		Server:            "here",
		TrustedConnection: true,
	},
}, {
	testName: "empty-elements",
	s:        `;;Server=x;;`,
	expect: dbprobe.Descriptor{
		Server: "x",
	},
}, {
	testName:    "unknown-key",
	s:           `Driver={x};Colour=blue;`,
	expectError: `unknown connection string key "Colour"`,
}, {
	testName:    "missing-equals",
	s:           `Driver={x};Server;`,
	expectError: `missing '=' in connection string element "Server"`,
}, {
	testName:    "unterminated-brace",
	s:           `Driver={x`,
	expectError: `unterminated brace in value of "Driver"`,
}, {
	testName:    "text-after-brace",
	s:           `Driver={x}y;`,
	expectError: `unexpected text after closing brace in value of "Driver"`,
}, {
	testName:    "bad-trusted-connection",
	s:           `Trusted_Connection=maybe`,
	expectError: `invalid Trusted_Connection value "maybe"`,
}}

func TestParseDescriptor(t *testing.T) {
	c := qt.New(t)
	for _, test := range parseDescriptorTests {
		c.Run(test.testName, func(c *qt.C) {
			d, err := dbprobe.ParseDescriptor(test.s)
			if test.expectError != "" {
				c.Assert(err, qt.ErrorMatches, test.expectError)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(d, qt.DeepEquals, test.expect)
		})
	}
}

func TestODBCRoundTrip(t *testing.T) {
	c := qt.New(t)
	d := dbprobe.Descriptor{
		Driver:            "ODBC {Driver}",
		Server:            "a;b",
		Database:          " padded",
		UID:               "u",
		PWD:               "p}w",
		TrustedConnection: true,
	}
	got, err := dbprobe.ParseDescriptor(d.ODBC())
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, d)
}
