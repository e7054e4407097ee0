// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records exchanges to a CBOR sequence file and plays
// them back.
//
// A capture is a Header item followed by one Entry item per exchange.
// Items use integer map keys so captures stay compact on slow links.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

// Magic identifies a capture file
const Magic = "meridian-capture"

// Version of the capture layout
const Version = 1

// Result values stored in Entry.Result
const (
	ResultOK        = ""
	ResultTimeout   = "timeout"
	ResultTruncated = "truncated"
	ResultTransport = "transport"
)

// ErrNotCapture is returned when a file does not start with a capture header
var ErrNotCapture = errors.New("not a meridian capture")

// Header is the first item of a capture
type Header struct {
	Magic   string    `cbor:"1,keyasint"`
	Version uint      `cbor:"2,keyasint"`
	Created time.Time `cbor:"3,keyasint"`
	Link    string    `cbor:"4,keyasint,omitempty"`
	Session string    `cbor:"5,keyasint,omitempty"` // Random ID shared by files from one run
}

// Entry is one recorded exchange
type Entry struct {
	Time     time.Time     `cbor:"1,keyasint"`
	Command  []byte        `cbor:"2,keyasint"`
	Response []byte        `cbor:"3,keyasint,omitempty"`
	Shape    uint8         `cbor:"4,keyasint"`
	Timeout  time.Duration `cbor:"5,keyasint"`
	Elapsed  time.Duration `cbor:"6,keyasint"`
	Result   string        `cbor:"7,keyasint,omitempty"`
	Error    string        `cbor:"8,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EntryFromRecord converts an exchange record
func EntryFromRecord(r lx200.Record) Entry {
	e := Entry{
		Time:     r.Time,
		Command:  r.Command,
		Response: r.Response,
		Shape:    uint8(r.Shape),
		Timeout:  r.Timeout,
		Elapsed:  r.Elapsed,
	}
	switch {
	case r.Err == nil:
		e.Result = ResultOK
	case errors.Is(r.Err, lx200.ErrTimeout):
		e.Result = ResultTimeout
	case errors.Is(r.Err, lx200.ErrTruncated):
		e.Result = ResultTruncated
	default:
		e.Result = ResultTransport
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}

// Record converts the entry back to an exchange record. Timeouts and
// truncations map back to the lx200 sentinel errors.
func (e Entry) Record() lx200.Record {
	r := lx200.Record{
		Time:     e.Time,
		Command:  e.Command,
		Response: e.Response,
		Shape:    lx200.Shape(e.Shape),
		Timeout:  e.Timeout,
		Elapsed:  e.Elapsed,
	}
	switch e.Result {
	case ResultOK:
	case ResultTimeout:
		r.Err = lx200.ErrTimeout
	case ResultTruncated:
		r.Err = fmt.Errorf("%w: %s", lx200.ErrTruncated, e.Error)
	default:
		r.Err = errors.New(e.Error)
	}
	return r
}

// Recorder writes exchanges to a capture. It implements lx200.Observer;
// the first write error is kept and later records are dropped.
type Recorder struct {
	mu     sync.Mutex
	enc    *cbor.Encoder
	closer io.Closer
	count  int
	err    error
}

// NewRecorder writes a header to w and returns a recorder appending to it
func NewRecorder(w io.Writer, link string) (*Recorder, error) {
	enc := encMode.NewEncoder(w)
	h := Header{
		Magic:   Magic,
		Version: Version,
		Created: time.Now(),
		Link:    link,
		Session: uuid.NewString(),
	}
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("write capture header: %w", err)
	}
	return &Recorder{enc: enc}, nil
}

// Create creates (or truncates) a capture file
func Create(path, link string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture: %w", err)
	}
	r, err := NewRecorder(f, link)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Observe implements lx200.Observer
func (r *Recorder) Observe(rec lx200.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := r.enc.Encode(EntryFromRecord(rec)); err != nil {
		r.err = fmt.Errorf("write capture entry: %w", err)
		return
	}
	r.count++
}

// Count returns the number of entries written
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first write error, if any
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the file opened by Create and returns the first write error
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.closer = nil
	}
	return r.err
}

// Reader reads entries from a capture
type Reader struct {
	dec    *cbor.Decoder
	Header Header
}

// NewReader reads and checks the capture header
func NewReader(r io.Reader) (*Reader, error) {
	dec := decMode.NewDecoder(r)
	var h Header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrNotCapture)
		}
		return nil, fmt.Errorf("%w: %v", ErrNotCapture, err)
	}
	if h.Magic != Magic {
		return nil, ErrNotCapture
	}
	if h.Version != Version {
		return nil, fmt.Errorf("unsupported capture version %d", h.Version)
	}
	return &Reader{dec: dec, Header: h}, nil
}

// Next returns the next entry, or io.EOF after the last one
func (r *Reader) Next() (Entry, error) {
	var e Entry
	if err := r.dec.Decode(&e); err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("read capture entry: %w", err)
	}
	return e, nil
}

// ReadAll reads a whole capture
func ReadAll(r io.Reader) (Header, []Entry, error) {
	cr, err := NewReader(r)
	if err != nil {
		return Header{}, nil, err
	}
	var entries []Entry
	for {
		e, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return cr.Header, entries, nil
		}
		if err != nil {
			return cr.Header, entries, err
		}
		entries = append(entries, e)
	}
}

// Open reads a whole capture file
func Open(path string) (Header, []Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	return ReadAll(f)
}
