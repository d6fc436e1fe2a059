package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/inertial_replay/internal/link"
)

// Config holds all application configuration values.
//
// The telemetry link itself (baud rate, read timeout, retry backoff) is
// fixed by the firmware and lives as constants in internal/link and
// internal/source; only the driver is selectable here.
type Config struct {
	// Input
	DefaultInput string // played when no input is named on the command line
	SerialDriver string // "bugst" or "jacobsa"

	// Polling
	PollInterval int // milliseconds between ticks

	// MQTT
	MQTTBroker          string
	MQTTClientIDBridge  string
	MQTTClientIDConsole string

	// Topics
	TopicEstimate  string
	TopicReference string
	TopicArrows    string
	TopicStatus    string

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal/Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		DefaultInput: "tilt1.txt",
		SerialDriver: link.DriverBugst,

		PollInterval: 16,

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDBridge:  "gyro-replay-bridge",
		MQTTClientIDConsole: "gyro-replay-console",

		TopicEstimate:  "gyro/orientation/estimate",
		TopicReference: "gyro/orientation/reference",
		TopicArrows:    "gyro/arrows",
		TopicStatus:    "gyro/status",

		WebServerPort: 8080,
	}
}

// Load reads the configuration file on top of Default().
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Input
	case "DEFAULT_INPUT":
		c.DefaultInput = value
	case "SERIAL_DRIVER":
		c.SerialDriver = value

	// Polling
	case "POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL %q: %w", value, err)
		}
		c.PollInterval = interval

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_ESTIMATE":
		c.TopicEstimate = value
	case "TOPIC_REFERENCE":
		c.TopicReference = value
	case "TOPIC_ARROWS":
		c.TopicArrows = value
	case "TOPIC_STATUS":
		c.TopicStatus = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.DefaultInput == "" {
		return fmt.Errorf("DEFAULT_INPUT is required")
	}
	if _, err := link.NewOpener(c.SerialDriver); err != nil {
		return fmt.Errorf("SERIAL_DRIVER: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %d", c.PollInterval)
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicEstimate == "" || c.TopicReference == "" || c.TopicArrows == "" || c.TopicStatus == "" {
		return fmt.Errorf("TOPIC_ESTIMATE, TOPIC_REFERENCE, TOPIC_ARROWS and TOPIC_STATUS are required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file, falling back
// to defaults when the file does not exist. Only the first call has any
// effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = LoadOrDefault(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
