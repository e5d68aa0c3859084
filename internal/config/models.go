package config

import "time"

// CurrentVersion is the only file format version understood by Load.
const CurrentVersion = 1

// Config is the entire server configuration file.
type Config struct {
	Version     int               `yaml:"version"`
	LogLevel    string            `yaml:"log_level"`
	HTTP        HTTPConfig        `yaml:"http"`
	AccessPoint AccessPointConfig `yaml:"access_point"`
	GPIO        GPIOConfig        `yaml:"gpio"`
	Device      DeviceConfig      `yaml:"device"`
	MDNS        MDNSConfig        `yaml:"mdns"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

// HTTPConfig controls the control-surface listener.
type HTTPConfig struct {
	Host            string        `yaml:"host"` // Empty = all interfaces
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AccessPointConfig describes the wireless network clients join.
type AccessPointConfig struct {
	SSID       string `yaml:"ssid"`
	Password   string `yaml:"password"` // Empty = open network
	Channel    int    `yaml:"channel"`
	MaxClients int    `yaml:"max_clients"`
	Interface  string `yaml:"interface"` // Network interface carrying the AP (e.g. wlan0)
	Address    string `yaml:"address"`   // Static address to report when Interface is empty

	// BringUpTimeout bounds the wait for Interface to get an address.
	BringUpTimeout time.Duration `yaml:"bringup_timeout"`
}

// GPIOConfig selects the pin driver and the actuator pin.
type GPIOConfig struct {
	Driver string `yaml:"driver"` // periph or memory
	Pin    string `yaml:"pin"`    // Driver pin name (e.g. GPIO17)
}

// DeviceConfig overrides the identity reported by /status.
type DeviceConfig struct {
	ChipModel string `yaml:"chip_model,omitempty"`
	Cores     uint8  `yaml:"cores,omitempty"`
}

// MDNSConfig controls service advertisement.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// MetricsConfig controls the Prometheus listener. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// MQTTConfig controls state publishing. Empty Broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"` // e.g. tcp://192.168.4.2:1883
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		HTTP: HTTPConfig{
			Port:            80,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		AccessPoint: AccessPointConfig{
			SSID:       "apled-WebServer",
			Password:   "123456789",
			Channel:    1,
			MaxClients: 4,
			Address:    "192.168.4.1",

			BringUpTimeout: time.Minute,
		},
		GPIO: GPIOConfig{
			Driver: "memory",
			Pin:    "GPIO2",
		},
		MDNS: MDNSConfig{
			Enabled:  true,
			Instance: "apled",
		},
		MQTT: MQTTConfig{
			ClientID:    "apled",
			TopicPrefix: "apled",
			QoS:         1,
		},
	}
}
