// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-event toggles decide which milestones actually send, so pipeline code
// calls the Service unconditionally.
package notifications
