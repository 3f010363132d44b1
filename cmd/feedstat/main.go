package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rogpeppe/liveplot/datafeed"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: feedstat <path>\n")
		fmt.Fprintf(os.Stderr, "Reads a liveplot data file and prints its watermark and data lines in human-readable format\n")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	frame, err := datafeed.NewReader(f).ReadFrame()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	fmt.Printf("watermark %d\n", frame.Watermark)
	for i, line := range frame.Lines {
		fmt.Printf("data line %d: %d values", i+1, len(line))
		if len(line) > 0 {
			min, max := line[0], line[0]
			for _, v := range line {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			fmt.Printf(", min %.3f, max %.3f", min, max)
		}
		fmt.Printf("\n")
	}
}
