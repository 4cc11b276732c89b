// Package config loads, normalizes, and validates Hermes configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the knobs the
// converter core and CLI need: where projects and logs live, the preferred
// export mode, audio capture preferences, alignment tolerance, and autosave
// cadence.
//
// Settings that the original desktop tool kept in a platform registry are
// persisted through the Store port instead; FileStore is the TOML-backed
// implementation used by the CLI.
package config
