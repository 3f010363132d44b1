// The feedgen command writes a moving sine wave to a data file,
// rewriting the file in place with an increasing watermark each time.
// It is useful for trying out liveplot.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/rogpeppe/liveplot/datafeed"
)

var (
	interval = flag.Duration("interval", 100*time.Millisecond, "time between frames")
	count    = flag.Int("n", 0, "number of frames to write (0 means forever)")
	lines    = flag.Int("lines", 1, "number of data lines in each frame")
	start    = flag.Int64("start", 0, "initial watermark")
	period   = flag.Float64("period", 5, "wave period in seconds")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: feedgen [flags] <path> <length>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
	}
	path := flag.Arg(0)
	length, err := strconv.Atoi(flag.Arg(1))
	if err != nil || length <= 0 {
		log.Fatalf("invalid length %q", flag.Arg(1))
	}
	t0 := time.Now()
	for i := 0; *count == 0 || i < *count; i++ {
		if i > 0 {
			time.Sleep(*interval)
		}
		phase := 2 * math.Pi * time.Since(t0).Seconds() / *period
		f := datafeed.Frame{
			Watermark: *start + int64(i),
			Lines:     make([][]float64, *lines),
		}
		for j := range f.Lines {
			f.Lines[j] = wave(length, phase+float64(j)*0.1)
		}
		if err := writeFile(path, f); err != nil {
			log.Fatal(err)
		}
	}
}

func wave(n int, phase float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = math.Sin(2*math.Pi*float64(i)/float64(n) + phase)
	}
	return y
}

// writeFile rewrites the file in place. A reader may see it
// part way through the write; the watermark lets it
// recover from that.
func writeFile(path string, f datafeed.Frame) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	if err := datafeed.WriteFrame(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
