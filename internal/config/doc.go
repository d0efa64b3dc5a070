// Package config provides centralized configuration management for the data
// explorer. Configuration is loaded from the following sources in order of
// precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file (config.yaml, configs/config.yaml or the path
//     in EXPLORER_CONFIG_FILE)
//  3. Default values from struct tags (lowest priority)
//
// All environment variables use the EXPLORER_ prefix followed by the section
// and field name:
//
//	EXPLORER_SERVER_PORT=8080
//	EXPLORER_LOGGING_LEVEL=debug
//	EXPLORER_UPLOAD_MAX_BYTES=104857600
//	EXPLORER_DATASETS_TTL=30m
//	EXPLORER_CACHE_MAX_ENTRIES=512
//	EXPLORER_EXPLORER_PREVIEW_ROWS=500
//
// Load validates the merged configuration and normalizes a few fields
// (upload extensions are lower-cased and dot-prefixed, log format is always
// JSON).
package config
