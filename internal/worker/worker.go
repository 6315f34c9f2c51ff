// Package worker drains the analytics job queue in batches, dispatching each
// job to a type-specific handler over the snapshot archive and diff engine.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/diff"
	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/prose"
	"github.com/tempandmajor/ottowrite-sub007/internal/queue"
)

// MaxBatchSize caps how many jobs a single ProcessBatch pass may claim.
const MaxBatchSize = 50

// Config holds worker tuning knobs. The zero value is usable.
type Config struct {
	// BatchSize is how many jobs one ProcessBatch pass claims, capped at
	// MaxBatchSize.
	BatchSize int

	// IdleInterval is how long Run sleeps when the queue is empty.
	IdleInterval time.Duration
}

// DefaultConfig returns the standard worker configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:    MaxBatchSize,
		IdleInterval: time.Second,
	}
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return c.BatchSize
}

func (c Config) idleInterval() time.Duration {
	if c.IdleInterval > 0 {
		return c.IdleInterval
	}
	return time.Second
}

// Worker claims analytics jobs and executes them.
type Worker struct {
	cfg     Config
	queue   *queue.Queue
	archive interfaces.Archive
	engine  *diff.Engine
	logger  interfaces.Logger
}

// NewWorker wires a worker over the queue and snapshot archive.
func NewWorker(cfg Config, q *queue.Queue, archive interfaces.Archive, logger interfaces.Logger) *Worker {
	return &Worker{
		cfg:     cfg,
		queue:   q,
		archive: archive,
		engine:  diff.NewEngine(),
		logger:  logger,
	}
}

// Run drains the queue until ctx is cancelled, sleeping between empty passes.
func (w *Worker) Run(ctx context.Context) error {
	for {
		n, err := w.ProcessBatch(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.idleInterval()):
		}
	}
}

// ProcessBatch claims and executes up to the configured batch size of jobs,
// returning how many were processed. A job whose handler fails is recorded
// against that job only; the batch keeps going.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	for processed < w.cfg.batchSize() {
		job, err := w.queue.Claim(ctx)
		if err != nil {
			return processed, fmt.Errorf("failed to claim job: %w", err)
		}
		if job == nil {
			return processed, nil
		}

		start := time.Now()
		output, handlerErr := w.processJob(ctx, job)
		elapsed := time.Since(start)

		if handlerErr != nil {
			if w.logger != nil {
				w.logger.Warn("job handler failed",
					interfaces.Field{Key: "job_id", Value: job.ID},
					interfaces.Field{Key: "job_type", Value: string(job.Type)},
					interfaces.Field{Key: "error", Value: handlerErr.Error()})
			}
			// ErrJobTerminal means a cancel landed mid-flight; the
			// outcome is discarded.
			if err := w.queue.Fail(ctx, job.ID, handlerErr.Error()); err != nil {
				if !errors.Is(err, queue.ErrJobTerminal) {
					return processed, fmt.Errorf("failed to record job failure: %w", err)
				}
			}
		} else {
			if err := w.queue.Complete(ctx, job.ID, output, elapsed); err != nil {
				if !errors.Is(err, queue.ErrJobTerminal) {
					return processed, fmt.Errorf("failed to complete job: %w", err)
				}
				if w.logger != nil {
					w.logger.Info("job cancelled mid-flight, result discarded",
						interfaces.Field{Key: "job_id", Value: job.ID})
				}
				processed++
				continue
			}
			if w.logger != nil {
				w.logger.Info("job completed",
					interfaces.Field{Key: "job_id", Value: job.ID},
					interfaces.Field{Key: "job_type", Value: string(job.Type)},
					interfaces.Field{Key: "elapsed_ms", Value: elapsed.Milliseconds()})
			}
		}
		processed++
	}
	return processed, nil
}

func (w *Worker) processJob(ctx context.Context, job *model.AnalyticsJob) (json.RawMessage, error) {
	switch job.Type {
	case model.JobSnapshotAnalysis:
		return w.analyzeSnapshot(ctx, job)
	case model.JobSnapshotComparison:
		return w.compareSnapshots(ctx, job)
	case model.JobWritingVelocity:
		return w.writingVelocity(ctx, job)
	case model.JobStructureAnalysis:
		return w.structureAnalysis(ctx, job)
	case model.JobSessionSummary:
		return w.rangeSummary(ctx, job)
	case model.JobDailySummary:
		return w.windowSummary(ctx, job, 24*time.Hour)
	case model.JobWeeklySummary:
		return w.windowSummary(ctx, job, 7*24*time.Hour)
	default:
		return nil, fmt.Errorf("unsupported job type %q", job.Type)
	}
}

type snapshotAnalysisInput struct {
	SnapshotID string `json:"snapshot_id"`
}

// SnapshotAnalysis is the output of a snapshot_analysis job: readability
// metrics over one captured snapshot.
type SnapshotAnalysis struct {
	SnapshotID            string    `json:"snapshot_id"`
	CapturedAt            time.Time `json:"captured_at"`
	WordCount             int       `json:"word_count"`
	SentenceCount         int       `json:"sentence_count"`
	SceneCount            int       `json:"scene_count"`
	AverageSentenceLength float64   `json:"average_sentence_length"`
	AverageWordLength     float64   `json:"average_word_length"`
}

func (w *Worker) analyzeSnapshot(ctx context.Context, job *model.AnalyticsJob) (json.RawMessage, error) {
	var in snapshotAnalysisInput
	if err := decodeInput(job.Input, &in); err != nil {
		return nil, err
	}
	if in.SnapshotID == "" {
		return nil, fmt.Errorf("snapshot_id is required")
	}

	snap, err := w.archive.GetSnapshot(ctx, in.SnapshotID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot %s not found", in.SnapshotID)
	}

	text := prose.ExtractText(snap.Content.Body)
	out := SnapshotAnalysis{
		SnapshotID:            snap.ID,
		CapturedAt:            snap.Timestamp,
		WordCount:             len(prose.Words(text)),
		SentenceCount:         len(prose.Sentences(text)),
		SceneCount:            snap.SceneCount,
		AverageSentenceLength: prose.AverageSentenceLength(text),
		AverageWordLength:     prose.AverageWordLength(text),
	}
	return json.Marshal(out)
}

type snapshotComparisonInput struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

func (w *Worker) compareSnapshots(ctx context.Context, job *model.AnalyticsJob) (json.RawMessage, error) {
	var in snapshotComparisonInput
	if err := decodeInput(job.Input, &in); err != nil {
		return nil, err
	}
	if in.FromID == "" || in.ToID == "" {
		return nil, fmt.Errorf("from_id and to_id are required")
	}

	from, err := w.archive.GetSnapshot(ctx, in.FromID)
	if err != nil {
		return nil, err
	}
	to, err := w.archive.GetSnapshot(ctx, in.ToID)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("comparison requires both snapshots to exist")
	}

	cmp, err := w.engine.Compare(from, to)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cmp)
}

type rangeInput struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

func (w *Worker) snapshotsForRange(ctx context.Context, documentID string, in rangeInput) ([]*model.ContentSnapshot, error) {
	if in.From.IsZero() && in.To.IsZero() {
		return w.archive.ListSnapshots(ctx, documentID)
	}
	to := in.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	return w.archive.ListSnapshotsInRange(ctx, documentID, in.From, to)
}

// VelocityReport is the output of a writing_velocity job.
type VelocityReport struct {
	SnapshotCount int       `json:"snapshot_count"`
	NetWordChange int       `json:"net_word_change"`
	ElapsedHours  float64   `json:"elapsed_hours"`
	WordsPerHour  float64   `json:"words_per_hour"`
	FirstSnapshot time.Time `json:"first_snapshot,omitempty"`
	LastSnapshot  time.Time `json:"last_snapshot,omitempty"`
}

func (w *Worker) writingVelocity(ctx context.Context, job *model.AnalyticsJob) (json.RawMessage, error) {
	var in rangeInput
	if err := decodeInput(job.Input, &in); err != nil {
		return nil, err
	}
	snaps, err := w.snapshotsForRange(ctx, job.DocumentID, in)
	if err != nil {
		return nil, err
	}

	out := VelocityReport{SnapshotCount: len(snaps)}
	if len(snaps) >= 2 {
		first, last := snaps[0], snaps[len(snaps)-1]
		elapsed := last.Timestamp.Sub(first.Timestamp)
		out.NetWordChange = last.WordCount - first.WordCount
		out.ElapsedHours = elapsed.Hours()
		out.WordsPerHour = diff.Velocity(out.NetWordChange, elapsed)
		out.FirstSnapshot = first.Timestamp
		out.LastSnapshot = last.Timestamp
	}
	return json.Marshal(out)
}

// StructureReport is the output of a structure_analysis job.
type StructureReport struct {
	SnapshotCount    int `json:"snapshot_count"`
	FirstSceneCount  int `json:"first_scene_count"`
	LastSceneCount   int `json:"last_scene_count"`
	SceneCountDelta  int `json:"scene_count_delta"`
	StructureChanges int `json:"structure_changes"`

	// OutlineDiff is a unified diff of the outline between the first and
	// last snapshot; empty when the outline did not change.
	OutlineDiff string `json:"outline_diff,omitempty"`
}

func (w *Worker) structureAnalysis(ctx context.Context, job *model.AnalyticsJob) (json.RawMessage, error) {
	var in rangeInput
	if err := decodeInput(job.Input, &in); err != nil {
		return nil, err
	}
	snaps, err := w.snapshotsForRange(ctx, job.DocumentID, in)
	if err != nil {
		return nil, err
	}

	out := StructureReport{SnapshotCount: len(snaps)}
	if len(snaps) > 0 {
		first, last := snaps[0], snaps[len(snaps)-1]
		out.FirstSceneCount = first.SceneCount
		out.LastSceneCount = last.SceneCount
		out.SceneCountDelta = out.LastSceneCount - out.FirstSceneCount
		out.OutlineDiff, err = diff.OutlineDiff(first, last)
		if err != nil {
			return nil, err
		}
	}
	for i := 1; i < len(snaps); i++ {
		cmp, err := w.engine.Compare(snaps[i-1], snaps[i])
		if err != nil {
			return nil, err
		}
		if cmp.HasStructureChanges {
			out.StructureChanges++
		}
	}
	return json.Marshal(out)
}

// SummaryReport is the output of session, daily, and weekly summary jobs.
type SummaryReport struct {
	From    time.Time            `json:"from"`
	To      time.Time            `json:"to"`
	Stats   *diff.AggregateStats `json:"stats"`
	Changes []string             `json:"changes,omitempty"`
}

func (w *Worker) rangeSummary(ctx context.Context, job *model.AnalyticsJob) (json.RawMessage, error) {
	var in rangeInput
	if err := decodeInput(job.Input, &in); err != nil {
		return nil, err
	}
	snaps, err := w.snapshotsForRange(ctx, job.DocumentID, in)
	if err != nil {
		return nil, err
	}
	return w.summarize(snaps, in)
}

type windowInput struct {
	// EndOfWindow anchors the summary window; zero means now.
	EndOfWindow time.Time `json:"end_of_window,omitempty"`
}

func (w *Worker) windowSummary(ctx context.Context, job *model.AnalyticsJob, window time.Duration) (json.RawMessage, error) {
	var in windowInput
	if err := decodeInput(job.Input, &in); err != nil {
		return nil, err
	}
	end := in.EndOfWindow
	if end.IsZero() {
		end = time.Now().UTC()
	}
	rng := rangeInput{From: end.Add(-window), To: end}

	snaps, err := w.archive.ListSnapshotsInRange(ctx, job.DocumentID, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	return w.summarize(snaps, rng)
}

func (w *Worker) summarize(snaps []*model.ContentSnapshot, rng rangeInput) (json.RawMessage, error) {
	out := SummaryReport{
		From:  rng.From,
		To:    rng.To,
		Stats: w.engine.Aggregate(snaps),
	}
	for i := 1; i < len(snaps); i++ {
		cmp, err := w.engine.Compare(snaps[i-1], snaps[i])
		if err != nil {
			return nil, err
		}
		out.Changes = append(out.Changes, cmp.Summary)
	}
	return json.Marshal(out)
}

func decodeInput(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode job input: %w", err)
	}
	return nil
}
