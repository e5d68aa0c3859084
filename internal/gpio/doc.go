// Package gpio drives the single output pin behind the actuator.
//
// Two drivers are provided:
//
//   - Periph uses periph.io to drive a real GPIO line (Raspberry Pi and other
//     boards with a periph host driver). Pins are addressed by their periph
//     name, e.g. "GPIO17".
//   - Memory keeps pin levels in a map. It is used on development hosts and
//     in tests, and can be told to fail to exercise fault paths.
//
// Drivers are selected by name through New.
package gpio
