// Package queue persists analytics jobs in SQLite and hands them to workers
// one at a time. Claiming is atomic: a single UPDATE moves the most urgent
// queued job to running, so concurrent workers never receive the same job.
package queue

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	// ErrJobNotFound is returned when no job exists with the given id.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobTerminal is returned when an operation targets a job that has
	// already completed, failed, or been cancelled.
	ErrJobTerminal = errors.New("job already in a terminal state")
	// ErrJobFailed is returned by WaitForCompletion when the awaited job
	// exhausted its attempts.
	ErrJobFailed = errors.New("job failed")
	// ErrJobCancelled is returned by WaitForCompletion when the awaited job
	// was cancelled.
	ErrJobCancelled = errors.New("job cancelled")
	// ErrWaitTimeout is returned by WaitForCompletion when the job did not
	// reach a terminal state within the wait window.
	ErrWaitTimeout = errors.New("timed out waiting for job completion")
)

// Config holds queue tuning knobs. The zero value is usable.
type Config struct {
	// DefaultMaxAttempts is applied to jobs enqueued with MaxAttempts <= 0.
	DefaultMaxAttempts int

	// DefaultPriority is applied to jobs enqueued with Priority == 0.
	// Lower values are claimed first.
	DefaultPriority int

	// PollInterval is how often WaitForCompletion re-reads job state.
	PollInterval time.Duration
}

// DefaultConfig returns the standard queue configuration.
func DefaultConfig() Config {
	return Config{
		DefaultMaxAttempts: 3,
		DefaultPriority:    100,
		PollInterval:       50 * time.Millisecond,
	}
}

func (c Config) maxAttempts() int {
	if c.DefaultMaxAttempts > 0 {
		return c.DefaultMaxAttempts
	}
	return 3
}

func (c Config) priority() int {
	if c.DefaultPriority != 0 {
		return c.DefaultPriority
	}
	return 100
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return 50 * time.Millisecond
}

// Queue is a SQLite-backed analytics job queue.
type Queue struct {
	db     *sql.DB
	cfg    Config
	logger interfaces.Logger
}

// NewQueue wires a queue over db, applying the job schema.
func NewQueue(db *sql.DB, cfg Config, logger interfaces.Logger) (*Queue, error) {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to apply job schema: %w", err)
	}
	return &Queue{db: db, cfg: cfg, logger: logger}, nil
}

const jobColumns = `id, user_id, document_id, job_type, status, priority,
	input, output, error, attempts, max_attempts, processing_ms,
	created_at, started_at, completed_at`

// Enqueue validates and persists a new job in the queued state. Missing id,
// priority, and max attempts are filled with defaults. The stored job is
// returned; the argument is not mutated.
func (q *Queue) Enqueue(ctx context.Context, job *model.AnalyticsJob) (*model.AnalyticsJob, error) {
	if job == nil {
		return nil, fmt.Errorf("job is nil")
	}
	if !job.Type.Valid() {
		return nil, fmt.Errorf("unknown job type %q", job.Type)
	}
	if job.DocumentID == "" {
		return nil, fmt.Errorf("document id is required")
	}

	stored := job.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.Priority == 0 {
		stored.Priority = q.cfg.priority()
	}
	if stored.MaxAttempts <= 0 {
		stored.MaxAttempts = q.cfg.maxAttempts()
	}
	stored.Status = model.JobQueued
	stored.Attempts = 0
	stored.Error = ""
	stored.Output = nil
	stored.StartedAt = nil
	stored.CompletedAt = nil
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO analytics_jobs
			(id, user_id, document_id, job_type, status, priority,
			 input, attempts, max_attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		stored.ID, stored.UserID, stored.DocumentID, string(stored.Type),
		string(stored.Status), stored.Priority, rawOrNil(stored.Input),
		stored.MaxAttempts, stored.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	if q.logger != nil {
		q.logger.Info("job enqueued",
			interfaces.Field{Key: "job_id", Value: stored.ID},
			interfaces.Field{Key: "job_type", Value: string(stored.Type)},
			interfaces.Field{Key: "document_id", Value: stored.DocumentID})
	}
	return stored, nil
}

// Claim atomically moves the most urgent queued job to running and returns
// it, incrementing its attempt counter. Lower priority values are claimed
// first; ties break on enqueue time. Returns (nil, nil) when the queue is
// empty.
func (q *Queue) Claim(ctx context.Context) (*model.AnalyticsJob, error) {
	now := time.Now().UTC().UnixMilli()
	row := q.db.QueryRowContext(ctx, `
		UPDATE analytics_jobs
		SET status = 'running', attempts = attempts + 1, started_at = ?
		WHERE id = (
			SELECT id FROM analytics_jobs
			WHERE status = 'queued'
			ORDER BY priority ASC, created_at ASC
			LIMIT 1
		)
		RETURNING `+jobColumns, now)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return job, nil
}

// Complete records a successful run. Completing an already-completed job is
// a no-op, so workers may safely retry after a lost acknowledgement.
// Completing a cancelled or failed job returns ErrJobTerminal; the result
// is discarded.
func (q *Queue) Complete(ctx context.Context, id string, output json.RawMessage, elapsed time.Duration) error {
	now := time.Now().UTC().UnixMilli()
	res, err := q.db.ExecContext(ctx, `
		UPDATE analytics_jobs
		SET status = 'completed', output = ?, error = '',
		    processing_ms = ?, completed_at = ?
		WHERE id = ? AND status = 'running'`,
		rawOrNil(output), elapsed.Milliseconds(), now, id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	job, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == model.JobCompleted {
		return nil
	}
	if job.Status.Terminal() {
		return fmt.Errorf("cannot complete job %s in state %q: %w", id, job.Status, ErrJobTerminal)
	}
	return fmt.Errorf("cannot complete job %s in state %q", id, job.Status)
}

// Fail records a failed attempt. Jobs with attempts remaining return to the
// queue; exhausted jobs terminate in the failed state. The failure message
// is retained either way.
func (q *Queue) Fail(ctx context.Context, id, message string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var attempts, maxAttempts int
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT attempts, max_attempts, status FROM analytics_jobs WHERE id = ?`, id).
		Scan(&attempts, &maxAttempts, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if status != string(model.JobRunning) {
		if model.JobStatus(status).Terminal() {
			return fmt.Errorf("cannot fail job %s in state %q: %w", id, status, ErrJobTerminal)
		}
		return fmt.Errorf("cannot fail job %s in state %q", id, status)
	}

	if attempts >= maxAttempts {
		now := time.Now().UTC().UnixMilli()
		_, err = tx.ExecContext(ctx, `
			UPDATE analytics_jobs
			SET status = 'failed', error = ?, completed_at = ?
			WHERE id = ?`, message, now, id)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE analytics_jobs
			SET status = 'queued', error = ?, started_at = NULL
			WHERE id = ?`, message, id)
	}
	if err != nil {
		return fmt.Errorf("failed to record job failure: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job failure: %w", err)
	}

	if q.logger != nil {
		q.logger.Warn("job attempt failed",
			interfaces.Field{Key: "job_id", Value: id},
			interfaces.Field{Key: "attempts", Value: attempts},
			interfaces.Field{Key: "error", Value: message})
	}
	return nil
}

// Cancel terminates a queued or running job. Cancelling a job already in a
// terminal state returns ErrJobTerminal. A running job's worker finishes its
// in-flight attempt, but the result is discarded by Complete/Fail since the
// job is no longer running.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	now := time.Now().UTC().UnixMilli()
	res, err := q.db.ExecContext(ctx, `
		UPDATE analytics_jobs
		SET status = 'cancelled', completed_at = ?
		WHERE id = ? AND status IN ('queued', 'running')`, now, id)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	if _, err := q.Get(ctx, id); err != nil {
		return err
	}
	return ErrJobTerminal
}

// Get returns the job with the given id.
func (q *Queue) Get(ctx context.Context, id string) (*model.AnalyticsJob, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM analytics_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return job, nil
}

// ListByDocument returns all jobs for a document, newest first.
func (q *Queue) ListByDocument(ctx context.Context, documentID string) ([]*model.AnalyticsJob, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM analytics_jobs
		 WHERE document_id = ? ORDER BY created_at DESC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.AnalyticsJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountByStatus returns the number of jobs per lifecycle state.
func (q *Queue) CountByStatus(ctx context.Context) (map[model.JobStatus]int, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM analytics_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.JobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

// WaitForCompletion blocks until the job reaches a terminal state or timeout
// elapses. The terminal job is returned alongside ErrJobFailed or
// ErrJobCancelled when it did not complete successfully; on timeout the last
// observed job is returned with ErrWaitTimeout.
func (q *Queue) WaitForCompletion(ctx context.Context, id string, timeout time.Duration) (*model.AnalyticsJob, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(q.cfg.pollInterval())
	defer ticker.Stop()

	var last *model.AnalyticsJob
	for {
		job, err := q.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		last = job
		if job.Status.Terminal() {
			switch job.Status {
			case model.JobFailed:
				return job, ErrJobFailed
			case model.JobCancelled:
				return job, ErrJobCancelled
			}
			return job, nil
		}
		if time.Now().After(deadline) {
			return last, ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.AnalyticsJob, error) {
	var (
		job                    model.AnalyticsJob
		jobType, status        string
		input, output          sql.NullString
		processingMS           int64
		createdAt              int64
		startedAt, completedAt sql.NullInt64
	)
	err := row.Scan(&job.ID, &job.UserID, &job.DocumentID, &jobType, &status,
		&job.Priority, &input, &output, &job.Error, &job.Attempts,
		&job.MaxAttempts, &processingMS, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	job.Type = model.JobType(jobType)
	job.Status = model.JobStatus(status)
	if input.Valid && input.String != "" {
		job.Input = json.RawMessage(input.String)
	}
	if output.Valid && output.String != "" {
		job.Output = json.RawMessage(output.String)
	}
	job.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	job.CreatedAt = time.UnixMilli(createdAt).UTC()
	if startedAt.Valid {
		t := time.UnixMilli(startedAt.Int64).UTC()
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		job.CompletedAt = &t
	}
	return &job, nil
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
