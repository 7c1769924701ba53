// Package config loads runtime configuration for the recipe book CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Durations go through timex.Duration, so they can be strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s"
//	}
package config
