// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Thermoquad/meridian/internal/config"
	"github.com/Thermoquad/meridian/pkg/lx200"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketPort carries LX200 bytes over a WebSocket bridge. Frames are
// read by a background goroutine so that Read can give up after the read
// timeout without failing the connection.
type WebSocketPort struct {
	conn    *websocket.Conn
	frames  chan []byte
	dead    chan struct{}
	done    chan struct{}
	readErr error

	buf     []byte
	timeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWebSocketPort(conn *websocket.Conn) *WebSocketPort {
	w := &WebSocketPort{
		conn:    conn,
		frames:  make(chan []byte, 16),
		dead:    make(chan struct{}),
		done:    make(chan struct{}),
		timeout: lx200.DefaultTimeout,
	}
	go w.readLoop()
	return w
}

func (w *WebSocketPort) readLoop() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = err
			close(w.dead)
			return
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		select {
		case w.frames <- data:
		case <-w.done:
			return
		}
	}
}

// Read returns buffered frame bytes, waiting up to the read timeout for
// the next frame. A non-positive timeout waits forever.
func (w *WebSocketPort) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		var expired <-chan time.Time
		if w.timeout > 0 {
			timer := time.NewTimer(w.timeout)
			defer timer.Stop()
			expired = timer.C
		}

		select {
		case data := <-w.frames:
			w.buf = data
		case <-w.dead:
			return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.readErr)
		case <-w.done:
			return 0, ErrConnectionClosed
		case <-expired:
			return 0, nil
		}
	}

	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *WebSocketPort) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetReadTimeout implements lx200.Port
func (w *WebSocketPort) SetReadTimeout(t time.Duration) error {
	w.timeout = t
	return nil
}

// Drain is a no-op; every Write sends a complete frame
func (w *WebSocketPort) Drain() error {
	return nil
}

// ResetInputBuffer drops the partial frame and any frames already received
func (w *WebSocketPort) ResetInputBuffer() error {
	w.buf = nil
	for {
		select {
		case <-w.frames:
		default:
			return nil
		}
	}
}

func (w *WebSocketPort) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}

// TCPPort carries LX200 bytes over a plain TCP socket, as exposed by WiFi
// addons on the mount controller.
type TCPPort struct {
	conn    net.Conn
	timeout time.Duration
}

// Read honours the read timeout; an expired deadline reads zero bytes
func (t *TCPPort) Read(p []byte) (int, error) {
	var deadline time.Time
	if t.timeout > 0 {
		deadline = time.Now().Add(t.timeout)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return n, nil
	}
	return n, err
}

func (t *TCPPort) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// SetReadTimeout implements lx200.Port
func (t *TCPPort) SetReadTimeout(d time.Duration) error {
	t.timeout = d
	return nil
}

// Drain is a no-op; Write returns once the kernel has the bytes
func (t *TCPPort) Drain() error {
	return nil
}

// ResetInputBuffer reads and discards whatever has already arrived
func (t *TCPPort) ResetInputBuffer() error {
	buf := make([]byte, 256)
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := t.conn.Read(buf)
		if n > 0 {
			continue
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	}
}

func (t *TCPPort) Close() error {
	return t.conn.Close()
}

// OpenSerialPort opens a serial port. go.bug.st/serial ports satisfy
// lx200.Port directly.
func OpenSerialPort(c config.ConnectionConfig) (lx200.Port, error) {
	port, err := serial.Open(c.Port, c.SerialMode())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", c.Port, err)
	}
	return port, nil
}

// OpenWebSocketPort opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketPort(c config.ConnectionConfig, password string) (*WebSocketPort, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: c.NoSSLVerify,
		}
	}

	headers := http.Header{}
	if c.Username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.DialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, c.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketPort(conn), nil
}

// OpenTCPPort dials the TCP command channel
func OpenTCPPort(c config.ConnectionConfig) (*TCPPort, error) {
	conn, err := net.DialTimeout("tcp", c.TCP, c.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("TCP connection failed: %w", err)
	}
	return &TCPPort{conn: conn, timeout: lx200.DefaultTimeout}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("MERIDIAN_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenPort opens the configured transport and describes it
func OpenPort() (lx200.Port, string, error) {
	c := cfg.Connection

	var (
		port lx200.Port
		info string
		err  error
	)
	switch c.Transport() {
	case config.TransportWebSocket:
		password := ""
		if c.Username != "" {
			if password, err = GetPassword(); err != nil {
				return nil, "", err
			}
		}
		port, err = OpenWebSocketPort(c, password)
		info = fmt.Sprintf("WebSocket: %s", c.URL)
	case config.TransportTCP:
		port, err = OpenTCPPort(c)
		info = fmt.Sprintf("TCP: %s", c.TCP)
	case config.TransportSerial:
		port, err = OpenSerialPort(c)
		info = fmt.Sprintf("Serial: %s @ %d baud", c.Port, c.Baud)
	default:
		return nil, "", errors.New("one of --port, --url or --tcp must be specified")
	}
	if err != nil {
		return nil, "", err
	}

	logger.Info("connected", zap.String("link", info))
	return port, info, nil
}
