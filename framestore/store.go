// Package framestore keeps a persistent history of the frames that
// have been plotted, keyed by watermark.
package framestore

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"time"

	"github.com/boltdb/bolt"
	"github.com/vmihailenco/msgpack/v5"
	errgo "gopkg.in/errgo.v1"
)

var frameBucket = []byte("frame")

// Frame holds a single accepted frame.
type Frame struct {
	Watermark int64     `msgpack:"w" json:"watermark"`
	Time      time.Time `msgpack:"t" json:"time"`
	Y         []float64 `msgpack:"y" json:"y"`
}

type jsonFrame struct {
	Watermark int64      `json:"watermark"`
	Time      time.Time  `json:"time"`
	Y         []*float64 `json:"y"`
}

// MarshalJSON implements json.Marshaler. NaN and infinite
// values have no JSON form, so they're encoded as null.
func (f Frame) MarshalJSON() ([]byte, error) {
	jf := jsonFrame{
		Watermark: f.Watermark,
		Time:      f.Time,
	}
	if f.Y != nil {
		jf.Y = make([]*float64, len(f.Y))
		for i, v := range f.Y {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				v := v
				jf.Y[i] = &v
			}
		}
	}
	return json.Marshal(jf)
}

// UnmarshalJSON implements json.Unmarshaler.
// A null value is decoded as NaN.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var jf jsonFrame
	if err := json.Unmarshal(data, &jf); err != nil {
		return err
	}
	*f = Frame{
		Watermark: jf.Watermark,
		Time:      jf.Time,
	}
	if jf.Y != nil {
		f.Y = make([]float64, len(jf.Y))
		for i, v := range jf.Y {
			if v == nil {
				f.Y[i] = math.NaN()
			} else {
				f.Y[i] = *v
			}
		}
	}
	return nil
}

// Store represents a frame history database.
type Store struct {
	db *bolt.DB
}

// Open opens the store at the given file, creating it if needed.
func Open(file string) (*Store, error) {
	db, err := bolt.Open(file, 0666, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, errgo.Notef(err, "cannot open frame store")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(frameBucket)
		if err != nil {
			return errgo.Mask(err)
		}
		b.FillPercent = 0.9 // Mostly append-only.
		return nil
	}); err != nil {
		db.Close()
		return nil, errgo.Mask(err)
	}
	return &Store{
		db: db,
	}, nil
}

// Close closes the store. All iterators must have been
// closed before calling Close.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return errgo.Mask(err)
}

// Add adds the given frames to the store. A frame with the same
// watermark as an existing frame replaces it.
// It must not be called in the same goroutine as a current iterator.
func (s *Store) Add(frames ...Frame) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(frameBucket)
		if b == nil {
			return errgo.Newf("no frame bucket")
		}
		for _, f := range frames {
			val, err := msgpack.Marshal(&f)
			if err != nil {
				return errgo.Notef(err, "cannot marshal frame %d", f.Watermark)
			}
			if err := b.Put(watermarkKey(f.Watermark), val); err != nil {
				return errgo.Mask(err)
			}
		}
		return nil
	})
	return errgo.Mask(err)
}

// Latest returns up to n of the most recent frames,
// most recent first.
func (s *Store) Latest(n int) ([]Frame, error) {
	var frames []Frame
	iter := s.ReverseIter(nil)
	for len(frames) < n && iter.Next() {
		frames = append(frames, iter.Value())
	}
	if err := iter.Close(); err != nil {
		return nil, errgo.Mask(err)
	}
	return frames, nil
}

// Iter returns an iterator that starts at the given watermark and returns
// frames in watermark order from there. If start is nil, iteration
// starts at the first frame.
func (s *Store) Iter(start *int64) *Iter {
	return s.iter(start, true)
}

// ReverseIter is like Iter but iterates backwards from the given
// watermark. If start is nil, iteration starts at the last frame.
func (s *Store) ReverseIter(start *int64) *Iter {
	return s.iter(start, false)
}

func (s *Store) iter(start *int64, forward bool) *Iter {
	tx, err := s.db.Begin(false)
	if err != nil {
		return &Iter{
			err: errgo.Notef(err, "cannot begin transaction"),
		}
	}
	b := tx.Bucket(frameBucket)
	if b == nil {
		tx.Rollback()
		return &Iter{
			err: errgo.Newf("frame bucket not found"),
		}
	}
	return &Iter{
		tx:       tx,
		cursor:   b.Cursor(),
		forward:  forward,
		needSeek: true,
		seekTo:   start,
	}
}

// Iter iterates over frames in the store.
type Iter struct {
	tx       *bolt.Tx
	cursor   *bolt.Cursor
	forward  bool
	seekTo   *int64
	needSeek bool
	current  Frame
	err      error
}

// Next advances to the next frame and reports whether there is one.
func (i *Iter) Next() bool {
	if i.cursor == nil {
		return false
	}
	var k, v []byte
	switch {
	case i.needSeek && i.seekTo != nil:
		k, v = i.cursor.Seek(watermarkKey(*i.seekTo))
		if !i.forward {
			// Seek finds the first key at or after the one we
			// asked for, so when going backwards step back
			// over a key that's beyond the start.
			if k == nil {
				k, v = i.cursor.Last()
			} else if decodeKey(k) > *i.seekTo {
				k, v = i.cursor.Prev()
			}
		}
	case i.needSeek && i.forward:
		k, v = i.cursor.First()
	case i.needSeek:
		k, v = i.cursor.Last()
	case i.forward:
		k, v = i.cursor.Next()
	default:
		k, v = i.cursor.Prev()
	}
	i.needSeek = false
	if k == nil {
		i.Close()
		return false
	}
	var f Frame
	if err := msgpack.Unmarshal(v, &f); err != nil {
		i.err = errgo.Notef(err, "cannot unmarshal frame %d", decodeKey(k))
		i.Close()
		return false
	}
	i.current = f
	return true
}

// Value returns the current frame.
func (i *Iter) Value() Frame {
	return i.current
}

// Err returns any error encountered during iteration.
func (i *Iter) Err() error {
	return i.err
}

// Close finishes the iteration and returns any error encountered.
// It is OK to call Close more than once.
func (i *Iter) Close() error {
	i.cursor = nil
	if i.tx != nil {
		if err := i.tx.Rollback(); err != nil && i.err == nil {
			i.err = errgo.Notef(err, "cannot close transaction")
		}
		i.tx = nil
	}
	return i.err
}

// watermarkKey returns the key for a watermark. Flipping the sign
// bit makes the big-endian encoding sort in numeric order, including
// negative watermarks.
func watermarkKey(wm int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(wm)^(1<<63))
	return k
}

func decodeKey(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k) ^ (1 << 63))
}
