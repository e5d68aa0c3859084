package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/apled/internal/logging"
)

const (
	appName    = "apled"
	configFile = "config.yaml"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/apled or $HOME/.config/apled
//   - macOS: $HOME/.config/apled (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\apled
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// resolvePath returns path, or the default location when path is empty.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	p, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return p, nil
}

// Load reads the configuration at path (or the default location when path
// is empty). A missing file yields Default(). Fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}

	return cfg, nil
}

// Save writes the configuration to path (or the default location).
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	configPath, err := resolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# apled server configuration
#
# Security Note: the access point passphrase and MQTT credentials are
# stored in plain text. Keep this file readable by the service user only.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Validate checks every field that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			add("log_level: %v", err)
		}
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		add("http.port %d out of range 1-65535", c.HTTP.Port)
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		add("http timeouts must not be negative")
	}

	ap := c.AccessPoint
	if ap.SSID == "" || len(ap.SSID) > 32 {
		add("access_point.ssid must be 1-32 bytes")
	}
	if ap.Password != "" && (len(ap.Password) < 8 || len(ap.Password) > 63) {
		add("access_point.password must be empty (open) or 8-63 characters")
	}
	if ap.Channel < 1 || ap.Channel > 13 {
		add("access_point.channel %d out of range 1-13", ap.Channel)
	}
	if ap.MaxClients < 1 || ap.MaxClients > 10 {
		add("access_point.max_clients %d out of range 1-10", ap.MaxClients)
	}
	if ap.BringUpTimeout <= 0 {
		add("access_point.bringup_timeout must be positive")
	}
	if ap.Interface == "" && ap.Address == "" {
		add("access_point needs an interface or an address")
	}

	if c.GPIO.Pin == "" {
		add("gpio.pin must be set")
	}

	if c.MDNS.Enabled && c.MDNS.Instance == "" {
		add("mdns.instance must be set when mdns is enabled")
	}

	if c.MQTT.Broker != "" {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil || u.Host == "" {
			add("mqtt.broker %q is not a URL (e.g. tcp://host:1883)", c.MQTT.Broker)
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			add("mqtt.qos %d out of range 0-2", c.MQTT.QoS)
		}
		if c.MQTT.TopicPrefix == "" {
			add("mqtt.topic_prefix must be set when mqtt is enabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
