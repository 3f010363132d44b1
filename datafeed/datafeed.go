// Package datafeed reads and writes the text data files used to feed a
// live plot.
//
// A data file holds a watermark line followed by zero or more data lines:
//
//	17
//	0.1 0.25 -0.5 0.75
//	0.2 0.3 -0.4 0.8
//
// The watermark is an integer that the producer increases whenever it
// writes new data. Each data line holds whitespace-separated floating
// point numbers. The producer rewrites the file in place, so a reader
// keeps the file open and rescans it from the start.
package datafeed

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	errgo "gopkg.in/errgo.v1"
)

// ErrNoWatermark is returned when the first line of a data file is
// missing or blank, which happens when the producer hasn't written
// anything yet or is part way through rewriting the file.
var ErrNoWatermark = errgo.New("no watermark")

// maxLineSize holds the longest data line that can be read.
const maxLineSize = 16 * 1024 * 1024

// Frame holds the contents of a data file.
type Frame struct {
	// Watermark holds the value from the first line of the file.
	Watermark int64
	// Lines holds the parsed values from each non-blank data line,
	// in file order.
	Lines [][]float64
}

// Last returns the values from the last data line,
// or nil if there are none.
func (f Frame) Last() []float64 {
	if len(f.Lines) == 0 {
		return nil
	}
	return f.Lines[len(f.Lines)-1]
}

// Concat returns the values from all the data lines joined
// together, or nil if there are none.
func (f Frame) Concat() []float64 {
	var all []float64
	for _, line := range f.Lines {
		all = append(all, line...)
	}
	return all
}

// Reader reads frames from a data file that may be
// rewritten concurrently by another process.
type Reader struct {
	r  io.ReadSeeker
	br *bufio.Reader
}

// NewReader returns a Reader that reads from r. Every read starts
// again at the beginning of r.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{
		r:  r,
		br: bufio.NewReader(r),
	}
}

// rewind seeks to the start of the underlying file and discards
// anything buffered from a previous read.
func (r *Reader) rewind() error {
	if _, err := r.r.Seek(0, io.SeekStart); err != nil {
		return errgo.Notef(err, "cannot seek to start of data")
	}
	r.br.Reset(r.r)
	return nil
}

// ReadWatermark reads the watermark from the first line. It returns an
// error with an ErrNoWatermark cause if the line is missing or blank.
func (r *Reader) ReadWatermark() (int64, error) {
	if err := r.rewind(); err != nil {
		return 0, errgo.Mask(err)
	}
	line, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, errgo.Notef(err, "cannot read watermark")
	}
	return ParseWatermark(line)
}

// ReadData reads and parses all the data lines following the
// watermark line. Blank lines are ignored.
func (r *Reader) ReadData() ([][]float64, error) {
	if err := r.rewind(); err != nil {
		return nil, errgo.Mask(err)
	}
	scan := bufio.NewScanner(r.br)
	scan.Buffer(nil, maxLineSize)
	if !scan.Scan() {
		if err := scan.Err(); err != nil {
			return nil, errgo.Notef(err, "cannot read watermark line")
		}
		return nil, nil
	}
	var lines [][]float64
	for lineNum := 2; scan.Scan(); lineNum++ {
		if strings.TrimSpace(scan.Text()) == "" {
			continue
		}
		vals, err := ParseValues(scan.Text())
		if err != nil {
			return nil, errgo.NoteMask(err, "line "+strconv.Itoa(lineNum))
		}
		lines = append(lines, vals)
	}
	if err := scan.Err(); err != nil {
		return nil, errgo.Notef(err, "cannot read data")
	}
	return lines, nil
}

// ReadFrame reads the whole file in one pass: the watermark
// followed by the data lines.
func (r *Reader) ReadFrame() (Frame, error) {
	wm, err := r.ReadWatermark()
	if err != nil {
		return Frame{}, errgo.Mask(err, errgo.Is(ErrNoWatermark))
	}
	lines, err := r.ReadData()
	if err != nil {
		return Frame{}, errgo.Mask(err)
	}
	return Frame{
		Watermark: wm,
		Lines:     lines,
	}, nil
}

// ParseWatermark parses a watermark line. Surrounding white space is
// ignored. It returns ErrNoWatermark if the line is blank.
func ParseWatermark(line string) (int64, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, ErrNoWatermark
	}
	wm, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errgo.Newf("invalid watermark %q", s)
	}
	return wm, nil
}

// ParseValues parses a line of whitespace-separated floating point numbers.
func ParseValues(line string) ([]float64, error) {
	fields := strings.Fields(line)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errgo.Newf("invalid value %q in column %d", f, i+1)
		}
		vals[i] = v
	}
	return vals, nil
}

// WriteFrame writes f to w in the format understood by Reader.
func WriteFrame(w io.Writer, f Frame) error {
	buf := strconv.AppendInt(nil, f.Watermark, 10)
	buf = append(buf, '\n')
	for _, line := range f.Lines {
		for i, v := range line {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
	}
	_, err := w.Write(buf)
	return errgo.Mask(err)
}
