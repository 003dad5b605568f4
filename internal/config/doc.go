// Package config loads the flowgate host configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/flowgate/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	base_endpoint = "https://router.example.com/entry"
//	request_timeout = "10s"
//	warmup = "3s"
//	attribution_timeout = "10s"
//	suppression_window = "3s"
//	rating_delay = "2s"
//	activation_date = "2025-01-15"   # UTC
//	device_class = "phone"
//	excluded_devices = ["tablet"]
//
//	[store]
//	backend = "file"                 # or "sqlite"
//	path = "~/.local/share/flowgate/state.toml"
//
//	[log]
//	level = "info"
//	format = "json"                  # or "console"
//	path = "~/.local/share/flowgate/flowgate.log"
//
//	[metrics]
//	addr = "127.0.0.1:9464"          # empty disables /metrics
//
//	[attribution]
//	install_id = ""                  # empty generates and persists one
//	delay = "500ms"
//	[attribution.fields]
//	media_source = "fb"
//
// Durations use time.ParseDuration syntax. An explicit "0s" means "no
// delay"; an empty string keeps the default. Tilde expansion is performed for
// every path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, file read errors (except
// os.ErrNotExist, which triggers defaults), TOML parsing errors and invalid
// values (ErrInvalid). base_endpoint is only required by commands that run
// the flow; see Config.Validate.
package config
