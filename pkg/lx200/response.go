// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package lx200

// Response holds the reply to one command. It has room for
// MaxResponseLength bytes; bytes arriving after it is full are dropped and
// the response is marked truncated.
//
// A Response is owned by the caller and overwritten by every exchange it is
// passed to.
type Response struct {
	buf       [MaxResponseLength]byte
	n         int
	truncated bool
}

// Reset empties the response
func (r *Response) Reset() {
	r.n = 0
	r.truncated = false
}

// Len returns the number of stored bytes
func (r *Response) Len() int {
	return r.n
}

// Bytes returns the stored bytes. The slice aliases the response and is
// only valid until the next exchange.
func (r *Response) Bytes() []byte {
	return r.buf[:r.n]
}

// String returns the stored bytes as a string
func (r *Response) String() string {
	return string(r.buf[:r.n])
}

// Truncated reports whether bytes were dropped because the buffer was full
func (r *Response) Truncated() bool {
	return r.truncated
}

// Terminated reports whether the response ends with the '#' terminator
func (r *Response) Terminated() bool {
	return r.n > 0 && r.buf[r.n-1] == Terminator
}

// TrimTerminator removes a trailing '#', if any
func (r *Response) TrimTerminator() {
	if r.Terminated() {
		r.n--
	}
}

// append stores b, returning false if the buffer is already full
func (r *Response) append(b byte) bool {
	if r.n >= len(r.buf) {
		r.truncated = true
		return false
	}
	r.buf[r.n] = b
	r.n++
	return true
}
