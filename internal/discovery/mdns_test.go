package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "apled server with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "apled"},
				HostName:      "raspberrypi.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.1")},
				Text:          []string{"app=apled", "path=/", "status=/status"},
			},
			wantIP:   "192.168.4.1",
			wantPort: 80,
		},
		{
			name: "custom port",
			entry: &zeroconf.ServiceEntry{
				HostName: "bench.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{"app=apled"},
			},
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name: "no port specified defaults to 80",
			entry: &zeroconf.ServiceEntry{
				HostName: "bench.local.",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
				Text:     []string{"app=apled"},
			},
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name: "other HTTP service",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.9")},
				Text:     []string{"path=/"},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "bench.local.",
				Port:     80,
				Text:     []string{"app=apled"},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "bench.local.",
				Port:     80,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"app=apled"},
			},
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "both families prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "bench.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.1")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
				Text:     []string{"app=apled"},
			},
			wantIP:   "192.168.4.1",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "bench.local.",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.1")},
		Text:     []string{"app=apled", "status=/status", "flag", "version=v1.0.0"},
	}

	device := NewScanner().parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expected := map[string]string{
		"app":     "apled",
		"status":  "/status",
		"flag":    "",
		"version": "v1.0.0",
	}
	if len(device.Metadata) != len(expected) {
		t.Errorf("device.Metadata has %d entries, want %d", len(device.Metadata), len(expected))
	}
	for key, want := range expected {
		if got, ok := device.Metadata[key]; !ok {
			t.Errorf("device.Metadata missing key %q", key)
		} else if got != want {
			t.Errorf("device.Metadata[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestAnnouncementTXT(t *testing.T) {
	txt := Announcement{Instance: "apled", Port: 80, Version: "v1.2.3"}.txtRecords()

	want := []string{AppTag, "path=/", "status=/status", "version=v1.2.3"}
	if len(txt) != len(want) {
		t.Fatalf("txtRecords() = %v, want %v", txt, want)
	}
	for i := range want {
		if txt[i] != want[i] {
			t.Errorf("txtRecords()[%d] = %q, want %q", i, txt[i], want[i])
		}
	}

	entry := &zeroconf.ServiceEntry{
		HostName: "bench.local.",
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.1")},
		Text:     txt,
	}
	if NewScanner().parseServiceEntry(entry) == nil {
		t.Error("scanner should recognise its own announcement")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertiserShutdownNil(t *testing.T) {
	var a *Advertiser
	a.Shutdown()
}

// Live mDNS registration and browsing need multicast and are exercised
// manually against a device.
