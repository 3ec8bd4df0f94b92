// Package config loads, normalizes, and validates Shortsmith configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY. The Config type centralizes every knob the CLI and API
// server need: working directories, the yt-dlp and ffmpeg collaborators, the
// Shorts canvas, text generation, the metadata cache, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
