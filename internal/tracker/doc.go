// Package tracker persists durable processing state in SQLite.
//
// Each content identity owns one record that carries lifecycle status,
// attempt count, completed stage checkpoints, and freeform metadata. Claim
// grants exclusive processing rights atomically so concurrent pollers never
// double-process the same recording, and stage checkpoints let a restarted
// run resume from its last completed stage instead of starting over.
package tracker
