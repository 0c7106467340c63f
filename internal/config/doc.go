// Package config loads, normalizes, and validates bericht configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WHISPER_API, LLM_API, LLM_API_KEY, LLM_MODEL, LOG_LEVEL and PROD. The Config
// type centralizes every knob the gateway and CLI need so upstream endpoints,
// mail relay settings and the log buffer size are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
