// Package network brings up the access point the control surface is served
// on and reports the address clients should use.
//
// The radio itself is managed by the platform (hostapd, NetworkManager or a
// vendor supervisor). Local waits until the configured interface carries an
// IPv4 address, or falls back to a static address when no interface is
// named, so the HTTP listener is never started before the network is usable.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/muurk/apled/internal/logging"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often Local re-checks the interface.
const DefaultPollInterval = 500 * time.Millisecond

// ErrNoAddress is returned when bring-up finishes without a usable address.
var ErrNoAddress = errors.New("no IPv4 address available")

// AccessPoint is the wireless network clients join.
type AccessPoint struct {
	SSID       string
	Password   string
	Channel    int
	MaxClients int
	Interface  string
	Address    string
}

// Bootstrapper brings the access point up and returns the service address.
type Bootstrapper interface {
	BringUpAccessPoint(ctx context.Context, ap AccessPoint) (net.IP, error)
	// Wireless reports whether the service is reachable over a radio.
	Wireless() bool
}

// Local attaches to an access point run by the host.
type Local struct {
	PollInterval time.Duration

	// addrs and sysfs are overridden in tests.
	addrs func(iface string) ([]net.Addr, error)
	sysfs string

	wireless bool
}

// NewLocal returns a Bootstrapper for a host-managed access point.
func NewLocal() *Local {
	return &Local{
		PollInterval: DefaultPollInterval,
		addrs:        interfaceAddrs,
		sysfs:        "/sys/class/net",
	}
}

func interfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}

// BringUpAccessPoint blocks until ap.Interface has an IPv4 address or ctx
// ends. Without an interface, ap.Address is parsed and returned directly.
func (l *Local) BringUpAccessPoint(ctx context.Context, ap AccessPoint) (net.IP, error) {
	logging.Info("Bringing up access point",
		zap.String("ssid", ap.SSID),
		zap.Int("channel", ap.Channel),
		zap.Int("max_clients", ap.MaxClients),
		zap.Bool("open", ap.Password == ""),
		zap.String("interface", ap.Interface),
	)

	if ap.Interface == "" {
		ip := net.ParseIP(ap.Address).To4()
		if ip == nil {
			return nil, fmt.Errorf("%w: static address %q is not IPv4", ErrNoAddress, ap.Address)
		}
		l.wireless = true
		return ip, nil
	}

	_, err := os.Stat(filepath.Join(l.sysfs, ap.Interface, "wireless"))
	l.wireless = err == nil

	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()

	for {
		ip, err := l.firstIPv4(ap.Interface)
		if err == nil {
			return ip, nil
		}
		logging.Debug("Waiting for access point address",
			zap.String("interface", ap.Interface),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("access point %s not ready: %w (last error: %v)", ap.Interface, ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

func (l *Local) firstIPv4(name string) (net.IP, error) {
	addrs, err := l.addrs(name)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("%w on %s", ErrNoAddress, name)
}

// Wireless reports whether the last bring-up landed on a wireless interface.
// A static address is assumed to be served by the platform radio.
func (l *Local) Wireless() bool {
	return l.wireless
}
