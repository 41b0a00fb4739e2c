// Package pipeline drives a claimed recording through the processing stages.
//
// The orchestrator owns the per-candidate lifecycle: identity computation,
// atomic claim, heartbeats while stages run, checkpointed stage execution,
// and final success or failure bookkeeping in the tracker. Stage wiring for
// the production pipeline lives in DefaultStages; tests swap in fakes through
// BuildStages.
package pipeline
