// Package daemon wires the tracker, discovery, and workflow manager into a
// long-running background service. A flock-based lock file keeps a second
// daemon on the same machine from double-processing recordings.
package daemon
