package ledger

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one invocation of a job.
type Run struct {
	ID         string         `json:"id"`
	Job        string         `json:"job"`
	InputFile  string         `json:"input_file,omitempty"`
	DryRun     bool           `json:"dry_run"`
	Status     Status         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
	Counts     map[string]int `json:"counts,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the terminal state reached by one record during a run.
type Outcome struct {
	RunID      string    `json:"run_id"`
	ISBN       string    `json:"isbn"`
	ListName   string    `json:"list_name,omitempty"`
	WorkKey    string    `json:"work_key,omitempty"`
	State      string    `json:"state"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
