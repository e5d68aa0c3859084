// Package actuator owns the single engaged/disengaged flag and keeps it in
// step with the output pin.
//
// A State is created once at startup, before the HTTP listener opens, and is
// passed by reference into the handlers. Every read and write of the flag
// goes through one mutex, and the pin write happens inside the same critical
// section, so a reader never sees a flag that disagrees with the pin and a
// Toggle can never interleave with another mutation.
//
// # Faults
//
// The pin write is treated as infallible. If the driver does report an error
// the State hands it to its fault handler (by default logging.Fatal, which
// terminates the process) and leaves the flag unchanged.
//
// # Observers
//
// Subscribers receive a Change after every mutation, outside the lock. Each
// Change carries a sequence number so observers that forward state elsewhere
// can discard stale notifications.
package actuator
