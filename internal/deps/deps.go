// Package deps verifies that the external binaries the pipeline shells out
// to are present before work is attempted.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external binary and what the pipeline uses it for.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status is a requirement plus the result of probing for it.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// CheckBinaries probes each requirement on PATH and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		st := Status{Requirement: req}
		st.Available, st.Detail = probe(req.Command)
		statuses[i] = st
	}
	return statuses
}

func probe(command string) (bool, string) {
	if command == "" {
		return false, "command not configured"
	}
	if _, err := exec.LookPath(command); err != nil {
		return false, fmt.Sprintf("binary %q not found", command)
	}
	return true, ""
}
