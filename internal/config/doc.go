// Package config loads passage-gateway configuration from YAML.
//
// Environment variables in ${VAR} form are expanded before parsing, and
// duration fields accept Go duration strings ("30m", "1h"). Validation runs
// at load time so a misconfigured gateway fails at startup, not on its first
// request.
package config
