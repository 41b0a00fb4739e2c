// Package config loads, normalizes, and validates scribe's TOML
// configuration. Path fields are tilde-expanded and made absolute during
// load; Validate enforces the invariants the daemon depends on (positive
// intervals, a stale-claim timeout longer than the heartbeat interval, a
// known identity strategy).
package config
