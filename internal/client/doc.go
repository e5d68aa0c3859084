// Package client talks to a running apled-server over its HTTP control
// surface.
//
// # Basic Usage
//
//	c := client.New("http://192.168.4.1")
//	status, err := c.Status(ctx)
//	on, err := c.Toggle(ctx)
//
// Reads and the idempotent /ledon and /ledoff calls are retried with
// exponential backoff. /ledtoggle is sent exactly once, since repeating it
// would flip the output again.
//
// # Error Handling
//
// Every failure is returned as a *DeviceError classified by cause:
//
//	if client.IsNetworkError(err) {
//	    fmt.Println(client.GetTroubleshootingHint(err))
//	}
package client
