package tracker

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a tracking record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// StageCompletion is one checkpointed stage: name, completion time, and the
// artifact reference the stage produced. Order in a record is execution order.
type StageCompletion struct {
	Stage       string    `json:"stage"`
	CompletedAt time.Time `json:"completed_at"`
	OutputRef   string    `json:"output_ref,omitempty"`
}

// Record is the durable processing state for one content identity.
type Record struct {
	Identity         string
	DisplayName      string
	Status           Status
	AttemptCount     int
	StageCompletions []StageCompletion
	Metadata         map[string]string
	ErrorMessage     string
	LastHeartbeat    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CompletionFor returns the recorded completion for a stage, if present.
func (r *Record) CompletionFor(stage string) (StageCompletion, bool) {
	for _, c := range r.StageCompletions {
		if c.Stage == stage {
			return c, true
		}
	}
	return StageCompletion{}, false
}

// StageNames returns completed stage names in execution order.
func (r *Record) StageNames() []string {
	names := make([]string, 0, len(r.StageCompletions))
	for _, c := range r.StageCompletions {
		names = append(names, c.Stage)
	}
	return names
}

// ClaimReason explains why a claim was refused.
type ClaimReason string

const (
	ReasonAlreadyInProgress ClaimReason = "already_in_progress"
	ReasonAlreadyCompleted  ClaimReason = "already_completed"
)

// ClaimResult is the outcome of an atomic claim attempt. A refusal is an
// expected condition under concurrent pollers, not an error.
type ClaimResult struct {
	Claimed bool
	Reason  ClaimReason
	Record  *Record
}

// HealthSummary describes aggregated record counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Failed     int
}
