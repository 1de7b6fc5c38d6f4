// Package config loads runtime configuration for the authctl CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. AUTHCTL_* environment variables.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string     address:port of the authd gRPC endpoint
//	-t duration   per-request timeout
//
// JSON example:
//
//	{
//	  "server_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
