package models

import "time"

const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job is one immutable snapshot of a backend prediction job. Every fetch
// produces a new snapshot; callers replace snapshots, they never edit them.
//
// CreatedAt and OriginalFilename are only sent by the upload and history
// endpoints and stay nil otherwise.
type Job struct {
	ID               string  `json:"job_id"`
	Status           string  `json:"status"`
	Summary          Summary `json:"summary"`
	CreatedAt        *string `json:"created_at,omitempty"`
	OriginalFilename *string `json:"original_filename,omitempty"`
}

// Summary holds the scoring statistics for a job.
type Summary struct {
	TotalRows     int      `json:"total_rows"`
	AttackRows    int      `json:"attack_rows"`
	AttackRatio   float64  `json:"attack_ratio"`
	TopClass      *string  `json:"top_class"`
	TopClassShare *float64 `json:"top_class_share"`
}

// JobResult is a successful poll: the snapshot plus the soft error the
// backend may attach through the X-Job-Error header. An empty JobError
// means no error was signalled in this response.
type JobResult struct {
	Job      Job
	JobError string
}

// IsTerminalStatus reports whether no further polling is needed for status.
// Unknown statuses are treated as still in progress.
func IsTerminalStatus(status string) bool {
	switch status {
	case JobStatusDone, JobStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if the job reached done or failed.
func (j Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// Downloadable reports whether scored results can be fetched for the job.
func (j Job) Downloadable() bool {
	return j.Status == JobStatusDone
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// CreatedTime parses CreatedAt. The backend formats it with Python's
// isoformat, which may omit the zone; zone-less values are read as UTC.
func (j Job) CreatedTime() (time.Time, bool) {
	if j.CreatedAt == nil || *j.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, *j.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
