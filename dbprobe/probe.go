// Package dbprobe opens a database session described by an ODBC-style
// connection descriptor, checking that the database can be reached.
//
// SQL backends go through database/sql, so the program using this
// package must link in the drivers it needs:
//
//	sqlserver	github.com/microsoft/go-mssqldb
//	postgres	github.com/lib/pq
//	duckdb	github.com/marcboeker/go-duckdb
//
// MongoDB sessions use gopkg.in/mgo.v2 directly.
package dbprobe

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"
)

var logger = loggo.GetLogger("liveplot.dbprobe")

// Backend identifies the kind of database a descriptor refers to.
type Backend string

const (
	SQLServer Backend = "sqlserver"
	Postgres  Backend = "postgres"
	DuckDB    Backend = "duckdb"
	MongoDB   Backend = "mongodb"
)

// Session represents an established database session.
type Session interface {
	// Ping checks that the session is still alive.
	Ping(ctx context.Context) error
	// Close releases the session.
	Close() error
}

// BackendFor returns the backend that serves the given ODBC
// driver name, which is matched case-insensitively.
func BackendFor(driver string) (Backend, error) {
	d := strings.ToLower(driver)
	switch {
	case strings.Contains(d, "sql server"), d == "sqlserver", d == "mssql":
		return SQLServer, nil
	case strings.Contains(d, "postgres"):
		return Postgres, nil
	case strings.Contains(d, "duckdb"):
		return DuckDB, nil
	case strings.Contains(d, "mongo"):
		return MongoDB, nil
	}
	return "", errgo.Newf("unknown database driver %q", driver)
}

// Probe opens a session to the database described by d and checks
// that it responds. The caller is responsible for closing the
// returned session.
func Probe(ctx context.Context, d Descriptor) (Session, error) {
	backend, err := BackendFor(d.Driver)
	if err != nil {
		return nil, errgo.Mask(err)
	}
	logger.Infof("connecting to %s (%s backend)", d, backend)
	var s Session
	if backend == MongoDB {
		s, err = dialMongo(ctx, d)
	} else {
		s, err = openSQL(ctx, backend, d)
	}
	if err != nil {
		return nil, errgo.Notef(err, "cannot connect to %s", d)
	}
	logger.Infof("connected to %s", d.Database)
	return s, nil
}

// DSN returns the database/sql data source name
// for the given SQL backend.
func DSN(backend Backend, d Descriptor) (string, error) {
	switch backend {
	case SQLServer:
		return sqlServerDSN(d), nil
	case Postgres:
		return postgresDSN(d), nil
	case DuckDB:
		return d.Database, nil
	}
	return "", errgo.Newf("no data source name for %s backend", backend)
}

type sqlSession struct {
	db *sql.DB
}

func (s sqlSession) Ping(ctx context.Context) error {
	return errgo.Mask(s.db.PingContext(ctx))
}

func (s sqlSession) Close() error {
	return errgo.Mask(s.db.Close())
}

func openSQL(ctx context.Context, backend Backend, d Descriptor) (Session, error) {
	dsn, err := DSN(backend, d)
	if err != nil {
		return nil, errgo.Mask(err)
	}
	// The backend names are also the registered driver names.
	db, err := sql.Open(string(backend), dsn)
	if err != nil {
		return nil, errgo.Mask(err)
	}
	s := sqlSession{db}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, errgo.Mask(err)
	}
	return s, nil
}

const localDBHost = "(localdb)"

// sqlServerDSN returns a URL-style go-mssqldb DSN. An ODBC server of
// the form host\instance names an instance; host,port names a port.
//
// go-mssqldb has no LocalDB support, so a (localdb) host is taken to
// be a named instance on the local machine. That only works when the
// instance is reachable over TCP via the SQL Server Browser, which
// LocalDB instances usually aren't.
func sqlServerDSN(d Descriptor) string {
	u := url.URL{
		Scheme: "sqlserver",
	}
	host := d.Server
	if i := strings.IndexByte(host, '\\'); i >= 0 {
		u.Path = host[i+1:]
		host = host[:i]
	}
	if strings.EqualFold(host, localDBHost) {
		host = "localhost"
	}
	u.Host = odbcHostPort(host)
	// With a trusted connection no credentials are sent,
	// which makes the driver use integrated security.
	if !d.TrustedConnection && d.UID != "" {
		u.User = url.UserPassword(d.UID, d.PWD)
	}
	q := url.Values{}
	if d.Database != "" {
		q.Set("database", d.Database)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// postgresDSN returns a lib/pq key/value DSN.
func postgresDSN(d Descriptor) string {
	var parts []string
	add := func(key, val string) {
		if val != "" {
			parts = append(parts, key+"="+pqQuote(val))
		}
	}
	host, port, err := net.SplitHostPort(odbcHostPort(d.Server))
	if err != nil {
		host, port = d.Server, ""
	}
	add("host", host)
	add("port", port)
	add("dbname", d.Database)
	add("user", d.UID)
	add("password", d.PWD)
	return strings.Join(parts, " ")
}

// odbcHostPort converts an ODBC host,port server name
// to host:port form.
func odbcHostPort(s string) string {
	if i := strings.LastIndexByte(s, ','); i >= 0 {
		return net.JoinHostPort(strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]))
	}
	return s
}

func pqQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return fmt.Sprintf("'%s'", r.Replace(s))
}
