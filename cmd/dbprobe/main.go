// The dbprobe command connects to the training database and exits
// as soon as the connection has been made. It takes no arguments.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/juju/loggo"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/rogpeppe/liveplot/dbprobe"
)

const connectTimeout = 15 * time.Second

func main() {
	loggo.ConfigureLoggers("<root>=INFO")
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if _, err := dbprobe.Probe(ctx, dbprobe.Default); err != nil {
		log.Fatalf("cannot connect: %v", err)
	}
	// The session is left open; exiting releases it.
	cancel()
	os.Exit(0)
}
