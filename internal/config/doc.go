// Package config loads, normalizes, and validates wesline configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WES_API_URL and WES_WORKER_URL. The Config type centralizes every knob the
// proxy daemon and CLI need so upstream endpoints, CORS policy, and notation
// defaults are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
