package model

import (
	"encoding/json"
	"time"
)

// JobType selects the analytics computation a job performs.
type JobType string

const (
	JobSnapshotAnalysis   JobType = "snapshot_analysis"
	JobSnapshotComparison JobType = "snapshot_comparison"
	JobWritingVelocity    JobType = "writing_velocity"
	JobStructureAnalysis  JobType = "structure_analysis"
	JobSessionSummary     JobType = "session_summary"
	JobDailySummary       JobType = "daily_summary"
	JobWeeklySummary      JobType = "weekly_summary"
)

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	switch t {
	case JobSnapshotAnalysis, JobSnapshotComparison, JobWritingVelocity,
		JobStructureAnalysis, JobSessionSummary, JobDailySummary, JobWeeklySummary:
		return true
	}
	return false
}

// JobStatus is the lifecycle state of an analytics job. Terminal states
// (completed, failed, cancelled) are immutable.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// AnalyticsJob is a unit of deferred analytics work. Jobs are created by an
// enqueue call and mutated only by the queue/worker; attempts never exceeds
// MaxAttempts, and a job that exhausts its attempts terminates in "failed".
type AnalyticsJob struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id,omitempty"`
	DocumentID string  `json:"document_id"`
	Type       JobType `json:"job_type"`

	Status JobStatus `json:"status"`

	// Priority orders dequeueing: lower value = more urgent.
	Priority int `json:"priority"`

	// Input holds job-type-specific parameters (e.g. snapshot ids).
	Input json.RawMessage `json:"input,omitempty"`

	// Output holds the result payload once completed.
	Output json.RawMessage `json:"output,omitempty"`

	// Error retains the last failure message for diagnostics.
	Error string `json:"error,omitempty"`

	Attempts    int `json:"attempts"`
	MaxAttempts int `json:"max_attempts"`

	// ProcessingTime is the wall time of the successful attempt.
	ProcessingTime time.Duration `json:"processing_time,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a copy safe to hand across goroutines.
func (j *AnalyticsJob) Clone() *AnalyticsJob {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Input != nil {
		cp.Input = append(json.RawMessage(nil), j.Input...)
	}
	if j.Output != nil {
		cp.Output = append(json.RawMessage(nil), j.Output...)
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
