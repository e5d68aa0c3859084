package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a discovered apled server on the network
type Device struct {
	// Instance is the mDNS instance name (e.g., "apled")
	Instance string

	// Hostname is the mDNS hostname (e.g., "raspberrypi.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.4.1")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the TXT record data
	// Common fields: "app=apled", "path=/", "status=/status", "version=..."
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("apled %s (%s) at %s:%d", d.Instance, d.Hostname, d.IP, d.Port)
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
