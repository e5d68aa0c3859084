// Package logging provides structured logging for apled.
//
// This package wraps a zap logger with package-level helpers so that every
// component logs through the same sink without threading a logger around.
//
// # Log Levels
//
//   - Debug: per-request detail, observer notifications
//   - Info: startup, bring-up, state changes, served requests
//   - Warn: response write failures, publish failures
//   - Error: listener and advertisement failures
//
// # Structured Logging
//
//	logging.Info("GPIO driver ready",
//	    zap.String("driver", "periph"),
//	    zap.String("pin", "GPIO17"),
//	)
//
// # Configuration
//
// The server initializes logging from its --log-level flag (or the config
// file). The control CLI calls InitializeFromEnv and stays silent unless
// APLED_LOG_LEVEL is set.
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
package logging
