// Package server implements the HTTP control surface for the actuator.
//
// The routing table is static and built once, before the listener opens:
//
//	GET /           home page with the current state and control links
//	GET /ledon      force the actuator on, confirmation page
//	GET /ledoff     force the actuator off, confirmation page
//	GET /ledtoggle  flip the actuator, confirmation page with the new state
//	GET /status     JSON status document
//
// Every other path, and every method other than GET on the paths above,
// gets an explicit 404 page. Nothing falls through to router defaults.
//
// # Request Handling
//
// net/http runs each request on its own goroutine. Handlers mutate the
// actuator first, then render the complete body into memory, then write it
// with an explicit Content-Length. A render failure yields a 500; a write
// failure is logged. Neither rolls back the mutation.
//
// # Startup Ordering
//
//	srv := server.New(cfg, state, source) // routes registered
//	addr, err := srv.Listen()             // bind, fatal on error
//	go srv.Serve()
//	...
//	srv.Shutdown(ctx)
//
// The caller brings the network up before calling New.
//
// # Metrics
//
// When MetricsListen is set, Prometheus metrics (request counts and
// durations per route, the current LED state and mutation counters) are
// served on that separate address so the control surface keeps its fixed
// path set.
package server
