// Package identity computes the stable key a recording is tracked under.
//
// Two strategies exist: hashing the file bytes (rename-stable, full read) or
// trusting the discovery source's external file ID (cheap, content-blind).
// The strategy is a deployment choice made in config; the tracker stores
// whatever key this package produces and never inspects it.
package identity
