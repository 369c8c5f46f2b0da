// Package config loads, normalizes, and validates highlighter configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the USE_GPU environment fallback.
// The Config type centralizes every threshold the pipeline uses so the scoring
// weights stay in code while gates and concurrency remain tunable.
package config
