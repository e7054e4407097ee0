// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/meridian/pkg/lx200"
)

func sampleRecords() []lx200.Record {
	at := time.Date(2025, 6, 1, 22, 0, 0, 123456789, time.UTC)
	return []lx200.Record{
		{Time: at, Command: []byte(":GR#"), Response: []byte("12:34:56#"), Shape: lx200.ShapeFull,
			Timeout: 300 * time.Millisecond, Elapsed: 12 * time.Millisecond},
		{Time: at.Add(time.Second), Command: []byte(":MS#"), Shape: lx200.ShapeShort,
			Timeout: 100 * time.Millisecond, Elapsed: 100 * time.Millisecond, Err: lx200.ErrTimeout},
		{Time: at.Add(2 * time.Second), Command: []byte(":Qn#"), Shape: lx200.ShapeNone,
			Timeout: 100 * time.Millisecond},
		{Time: at.Add(3 * time.Second), Command: []byte(":GV#"), Response: []byte("x"), Shape: lx200.ShapeFull,
			Err: errors.New("read response: eof")},
	}
}

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "Serial: /dev/ttyUSB0")
	require.NoError(t, err)

	for _, r := range sampleRecords() {
		rec.Observe(r)
	}
	require.NoError(t, rec.Err())
	assert.Equal(t, 4, rec.Count())
	require.NoError(t, rec.Close())

	header, entries, err := ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, Magic, header.Magic)
	assert.Equal(t, uint(Version), header.Version)
	assert.Equal(t, "Serial: /dev/ttyUSB0", header.Link)
	_, err = uuid.Parse(header.Session)
	assert.NoError(t, err, "session %q", header.Session)
	require.Len(t, entries, 4)

	for i, want := range sampleRecords() {
		got := entries[i].Record()
		assert.True(t, want.Time.Equal(got.Time), "entry %d time %v != %v", i, got.Time, want.Time)
		assert.Equal(t, want.Command, got.Command, "entry %d", i)
		assert.Equal(t, len(want.Response), len(got.Response), "entry %d", i)
		assert.Equal(t, want.Shape, got.Shape, "entry %d", i)
		assert.Equal(t, want.Timeout, got.Timeout, "entry %d", i)
		assert.Equal(t, want.Elapsed, got.Elapsed, "entry %d", i)
	}

	assert.NoError(t, entries[0].Record().Err)
	assert.ErrorIs(t, entries[1].Record().Err, lx200.ErrTimeout)
	assert.Equal(t, ResultTransport, entries[3].Result)
	assert.EqualError(t, entries[3].Record().Err, "read response: eof")
}

func TestEntryFromRecord_Truncated(t *testing.T) {
	e := EntryFromRecord(lx200.Record{Err: lx200.ErrTruncated})
	assert.Equal(t, ResultTruncated, e.Result)
	assert.ErrorIs(t, e.Record().Err, lx200.ErrTruncated)
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")
	rec, err := Create(path, "TCP: 10.0.0.1:9999")
	require.NoError(t, err)
	rec.Observe(sampleRecords()[0])
	require.NoError(t, rec.Close())

	header, entries, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "TCP: 10.0.0.1:9999", header.Link)
	require.Len(t, entries, 1)
	assert.Equal(t, "12:34:56#", string(entries[0].Response))
}

func TestReader_Next(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "")
	require.NoError(t, err)
	rec.Observe(sampleRecords()[0])

	r, err := NewReader(&buf)
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReader_Rejects(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNotCapture)

	other, err := cbor.Marshal(map[int]string{1: "something-else"})
	require.NoError(t, err)
	_, err = NewReader(bytes.NewReader(other))
	assert.ErrorIs(t, err, ErrNotCapture)

	future, err := cbor.Marshal(Header{Magic: Magic, Version: Version + 1})
	require.NoError(t, err)
	_, err = NewReader(bytes.NewReader(future))
	assert.ErrorContains(t, err, "unsupported capture version")
}

func TestReadAll_TruncatedEntry(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "")
	require.NoError(t, err)
	rec.Observe(sampleRecords()[0])
	rec.Observe(sampleRecords()[0])

	data := buf.Bytes()[:buf.Len()-3]
	_, entries, err := ReadAll(bytes.NewReader(data))
	assert.Error(t, err)
	assert.Len(t, entries, 1)
}

type failingWriter struct {
	allow int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.allow <= 0 {
		return 0, errors.New("disk full")
	}
	w.allow--
	return len(p), nil
}

func TestRecorder_KeepsFirstError(t *testing.T) {
	rec, err := NewRecorder(&failingWriter{allow: 1}, "")
	require.NoError(t, err)

	rec.Observe(sampleRecords()[0])
	rec.Observe(sampleRecords()[1])

	assert.ErrorContains(t, rec.Err(), "disk full")
	assert.Equal(t, 0, rec.Count())
	assert.Error(t, rec.Close())
}
