// Package discovery advertises apled servers over mDNS and finds them again.
//
// The server registers a "_http._tcp" service once its listener is up. The
// TXT record marks the service as apled and carries the paths of the control
// surface, so a scanner can tell apled devices apart from any other HTTP
// service on the access point.
//
// # Advertising
//
//	adv, err := discovery.Advertise(discovery.Announcement{
//	    Instance: "apled",
//	    Port:     80,
//	    Version:  version.Version,
//	})
//	if err != nil {
//	    return err
//	}
//	defer adv.Shutdown()
//
// # Scanning
//
//	devices, err := discovery.ScanForDevices(5 * time.Second)
//	for _, d := range devices {
//	    fmt.Println(d.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Client and server must share the network segment (join the AP)
// - Firewall must allow mDNS (UDP port 5353)
package discovery
