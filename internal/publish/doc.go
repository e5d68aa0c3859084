// Package publish mirrors actuator state changes onto an MQTT broker.
//
// Topics, relative to the configured prefix:
//
//	<prefix>/state   retained JSON {"led_state":..,"seq":..,"source":..,"timestamp":..}
//	<prefix>/status  retained JSON {"status":"online"|"offline",...}
//
// The broker publishes an offline status as the last will if the process
// dies without calling Close. State messages carry the mutation sequence
// number and are never published out of order, so the retained message is
// always the latest state.
package publish
