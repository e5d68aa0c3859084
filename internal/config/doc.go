// Package config loads and saves the apled server configuration.
//
// The configuration is a YAML file. When no path is given, it is looked up
// in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/apled/config.yaml or $HOME/.config/apled/config.yaml
//   - macOS: $HOME/.config/apled/config.yaml
//   - Windows: %LOCALAPPDATA%\apled\config.yaml
//
// A missing file is not an error: Default() is used instead. Command-line
// flags are applied on top of whatever was loaded, then Validate is called
// before anything is started.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	cfg.HTTP.Port = 8080
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Security
//
// The access point passphrase and MQTT password are stored in plain text.
// Save writes the file with 0600 permissions.
package config
