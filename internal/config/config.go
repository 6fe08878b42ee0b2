// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml"

	"gitlab.com/postmarketOS/nmea_share/internal/nmea"
)

var (
	ErrTalker   = errors.New("talker must be two ASCII uppercase letters or digits")
	ErrSentence = errors.New("unsupported sentence")
)

const (
	DefaultSocket     = "/run/nmea_share.sock"
	DefaultIntervalMs = 1000
	DefaultBaudRate   = 4800
	DefaultClientID   = "nmea_share"
	DefaultLogLevel   = "info"
)

type Config struct {
	Socket     string `toml:"socket"`
	OwnerGroup string `toml:"group"`
	Talker     string `toml:"talker"`
	IntervalMs int    `toml:"interval_ms"`
	// Scenario is the YAML instrument scenario driving the sentences.
	Scenario string `toml:"scenario"`
	// Once plays the scenario a single time and then holds its final state,
	// instead of looping.
	Once      bool     `toml:"once"`
	Sentences []string `toml:"sentences"`
	LogLevel  string   `toml:"log_level"`

	Serial Serial `toml:"serial"`
	Pty    Pty    `toml:"pty"`
	MQTT   MQTT   `toml:"mqtt"`
	LogDB  LogDB  `toml:"log_db"`
}

// Serial is an optional serial port output. Disabled when Device is empty.
type Serial struct {
	Device   string `toml:"device"`
	BaudRate int    `toml:"baud_rate"`
}

// Pty is an optional pseudo terminal output. Link, if set, is a symlink
// created to the tty so consumers get a stable path.
type Pty struct {
	Enabled bool   `toml:"enabled"`
	Link    string `toml:"link"`
}

// MQTT is an optional broker output. Disabled when Broker is empty.
type MQTT struct {
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
}

// LogDB is an optional SQLite sentence log. Disabled when Path is empty.
type LogDB struct {
	Path string `toml:"path"`
}

func Parse(file string) (c *Config, err error) {
	contents, err := os.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("config.Parse(): %w", err)
		return
	}

	c, err = Load(contents)
	if err != nil {
		err = fmt.Errorf("config.Parse(): %q: %w", file, err)
	}
	return
}

// Load unmarshals a TOML document, applies defaults and validates the
// result.
func Load(contents []byte) (c *Config, err error) {
	c = &Config{}

	if err = toml.Unmarshal(contents, c); err != nil {
		return nil, fmt.Errorf("config.Load(): %w", err)
	}

	c.setDefaults()

	if err = c.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load(): %w", err)
	}
	return
}

func (c *Config) setDefaults() {
	if c.Socket == "" {
		c.Socket = DefaultSocket
	}
	if c.Talker == "" {
		c.Talker = "II"
	}
	if c.IntervalMs == 0 {
		c.IntervalMs = DefaultIntervalMs
	}
	if len(c.Sentences) == 0 {
		c.Sentences = append([]string(nil), nmea.SentenceIDs...)
	}
	for i, s := range c.Sentences {
		c.Sentences[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = DefaultBaudRate
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "nmea/" + c.Talker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultClientID
	}
}

func (c *Config) Validate() error {
	if !validTalker(c.Talker) {
		return fmt.Errorf("%q: %w", c.Talker, ErrTalker)
	}
	if c.IntervalMs < 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", c.IntervalMs)
	}
	if c.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	for _, s := range c.Sentences {
		if !supported(s) {
			return fmt.Errorf("%q: %w", s, ErrSentence)
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Serial.BaudRate < 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	return nil
}

// Interval is the period between two bursts of sentences.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

func validTalker(t string) bool {
	if len(t) != 2 {
		return false
	}
	for i := 0; i < len(t); i++ {
		ch := t[i]
		if !(ch >= 'A' && ch <= 'Z') && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}

func supported(id string) bool {
	for _, s := range nmea.SentenceIDs {
		if s == id {
			return true
		}
	}
	return false
}
