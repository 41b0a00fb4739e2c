// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp content identities, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across the pipeline: identity errors skip a
//     candidate, tracking-store errors terminate the process, stage errors
//     fail a single identity.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
