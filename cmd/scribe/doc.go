// Command scribe is the operator CLI for the recording pipeline: process a
// single file, inspect tracked records, retry failures, and manage
// configuration.
package main
