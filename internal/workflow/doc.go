// Package workflow polls discovery sources and feeds candidates to the
// pipeline orchestrator.
//
// The manager loop is deliberately simple: every poll interval it reclaims
// stale claims, asks the source for settled recordings, and processes each
// candidate. Claim refusals make re-seeing the same files on every poll
// harmless, so the loop carries no memory of what it has handed off.
package workflow
