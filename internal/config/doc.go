// Package config loads, normalizes, and validates TALI dataset configuration.
//
// It supplies repository defaults that mirror the training recipes (seed 42,
// top-10 candidate videos, 224 pixel frames, 3 second clips), expands user
// paths including tilde shortcuts, reads TOML files, and honours environment
// fallbacks such as TALI_ROOT_FILEPATH and TALI_STORE_DIR.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a parsed modality list, and clear validation errors.
package config
