// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads meridian settings from a config file, MERIDIAN_*
// environment variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.bug.st/serial"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "MERIDIAN"

// Transport names returned by ConnectionConfig.Transport
const (
	TransportNone      = ""
	TransportSerial    = "serial"
	TransportWebSocket = "websocket"
	TransportTCP       = "tcp"
)

// ConnectionConfig selects and configures the link to the controller
type ConnectionConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	URL         string        `mapstructure:"url"`
	Username    string        `mapstructure:"username"`
	NoSSLVerify bool          `mapstructure:"noSSLVerify"`
	TCP         string        `mapstructure:"tcp"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

// ProtocolConfig controls the transceiver
type ProtocolConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	LegacyOverflow bool          `mapstructure:"legacyOverflow"`
	Precision      string        `mapstructure:"precision"`
}

// LumberjackConfig configures the rolling log file
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets the log level and outputs
type LoggingConfig struct {
	Level   string           `mapstructure:"level"`
	Format  string           `mapstructure:"format"`
	Console bool             `mapstructure:"console"`
	File    LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// Config is the top level configuration
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Protocol   ProtocolConfig   `mapstructure:"protocol"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"port":            "connection.port",
	"baud":            "connection.baud",
	"url":             "connection.url",
	"username":        "connection.username",
	"no-ssl-verify":   "connection.noSSLVerify",
	"tcp":             "connection.tcp",
	"timeout":         "protocol.timeout",
	"legacy-overflow": "protocol.legacyOverflow",
	"precision":       "protocol.precision",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
	"log-file":        "logging.file.filename",
	"metrics-addr":    "metrics.addr",
}

// AddFlags registers the global flags on fs
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default ./meridian.yaml, or $MERIDIAN_CONFIG)")

	// Serial
	fs.StringP("port", "p", "", "Serial port device")
	fs.IntP("baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket bridge
	fs.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	fs.String("username", "", "Username for HTTP Basic auth")
	fs.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// TCP
	fs.String("tcp", "", "TCP command channel address (host:port)")

	// Protocol
	fs.Duration("timeout", 100*time.Millisecond, "Base reply timeout")
	fs.Bool("legacy-overflow", false, "Accept replies longer than the buffer without error")
	fs.String("precision", "high", "Angle and time precision (high or low)")

	// Logging
	fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	fs.String("log-format", "console", "Log format (console or json)")
	fs.String("log-file", "", "Also write logs to this rolling file")
}

// Load reads the configuration. path may be empty, in which case
// $MERIDIAN_CONFIG or ./meridian.yaml is used when present. Flags in fs that
// were set on the command line override everything else; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("meridian")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Running without a config file is normal
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.port", "")
	v.SetDefault("connection.baud", 9600)
	v.SetDefault("connection.url", "")
	v.SetDefault("connection.username", "")
	v.SetDefault("connection.noSSLVerify", false)
	v.SetDefault("connection.tcp", "")
	v.SetDefault("connection.dialTimeout", "15s")

	v.SetDefault("protocol.timeout", "100ms")
	v.SetDefault("protocol.legacyOverflow", false)
	v.SetDefault("protocol.precision", "high")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}

// Transport returns which link is selected, or TransportNone
func (c *ConnectionConfig) Transport() string {
	switch {
	case c.URL != "":
		return TransportWebSocket
	case c.TCP != "":
		return TransportTCP
	case c.Port != "":
		return TransportSerial
	default:
		return TransportNone
	}
}

// SerialMode returns the 8N1 mode for the configured baud rate
func (c *ConnectionConfig) SerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Validate rejects contradictory or unusable settings
func (c *Config) Validate() error {
	selected := 0
	for _, s := range []string{c.Connection.Port, c.Connection.URL, c.Connection.TCP} {
		if s != "" {
			selected++
		}
	}
	if selected > 1 {
		return errors.New("only one of --port, --url and --tcp may be given")
	}
	if c.Connection.Port != "" && c.Connection.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Connection.Baud)
	}
	if c.Connection.URL != "" {
		u, err := url.Parse(c.Connection.URL)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
		}
	}
	if c.Protocol.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Protocol.Timeout)
	}
	switch strings.ToLower(c.Protocol.Precision) {
	case "high", "low":
	default:
		return fmt.Errorf("unknown precision %q (use high or low)", c.Protocol.Precision)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (use console or json)", c.Logging.Format)
	}
	return nil
}
