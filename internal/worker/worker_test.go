package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/archive"
	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/queue"
	"github.com/tempandmajor/ottowrite-sub007/internal/sqlitedb"
	"github.com/tempandmajor/ottowrite-sub007/internal/testutil"
)

type testRig struct {
	worker  *Worker
	queue   *queue.Queue
	archive *archive.SQLiteArchive
}

func newTestRig(t *testing.T, cfg Config) *testRig {
	t.Helper()
	db, err := sqlitedb.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	q, err := queue.NewQueue(db, queue.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	a, err := archive.NewSQLiteArchive(db, nil)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	return &testRig{
		worker:  NewWorker(cfg, q, a, nil),
		queue:   q,
		archive: a,
	}
}

func putTestSnapshot(t *testing.T, rig *testRig, id string, at time.Time, body string, words, scenes int) {
	t.Helper()
	err := rig.archive.PutSnapshot(context.Background(), "doc-1", &model.ContentSnapshot{
		ID:          id,
		Timestamp:   at,
		Source:      model.SourceAutosave,
		Fingerprint: "fp-" + id,
		WordCount:   words,
		SceneCount:  scenes,
		Content:     model.DocumentContent{Body: body},
	})
	if err != nil {
		t.Fatalf("PutSnapshot failed: %v", err)
	}
}

func enqueue(t *testing.T, rig *testRig, jobType model.JobType, input any, maxAttempts int) *model.AnalyticsJob {
	t.Helper()
	var raw json.RawMessage
	if input != nil {
		b, err := json.Marshal(input)
		if err != nil {
			t.Fatalf("Failed to encode input: %v", err)
		}
		raw = b
	}
	job, err := rig.queue.Enqueue(context.Background(), &model.AnalyticsJob{
		DocumentID:  "doc-1",
		Type:        jobType,
		Input:       raw,
		MaxAttempts: maxAttempts,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return job
}

func TestSnapshotAnalysisJob(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	body := "<p>The rain stopped. The streets were empty and quiet.</p>"
	putTestSnapshot(t, rig, "snap-1", time.Now().UTC(), body, 10, 2)
	job := enqueue(t, rig, model.JobSnapshotAnalysis, map[string]string{"snapshot_id": "snap-1"}, 1)

	n, err := rig.worker.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 job processed, got %d", n)
	}

	done, err := rig.queue.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if done.Status != model.JobCompleted {
		t.Fatalf("Expected completed job, got %q (error: %s)", done.Status, done.Error)
	}

	var out SnapshotAnalysis
	if err := json.Unmarshal(done.Output, &out); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if out.WordCount != 9 {
		t.Errorf("Expected word count 9, got %d", out.WordCount)
	}
	if out.SentenceCount != 2 {
		t.Errorf("Expected 2 sentences, got %d", out.SentenceCount)
	}
	if out.SceneCount != 2 {
		t.Errorf("Expected scene count 2, got %d", out.SceneCount)
	}
}

func TestSnapshotComparisonJob(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	putTestSnapshot(t, rig, "old", base, "<p>one two three</p>", 3, 1)
	putTestSnapshot(t, rig, "new", base.Add(time.Hour), "<p>one two three four five</p>", 5, 1)
	job := enqueue(t, rig, model.JobSnapshotComparison,
		map[string]string{"from_id": "old", "to_id": "new"}, 1)

	if _, err := rig.worker.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	done, _ := rig.queue.Get(ctx, job.ID)
	if done.Status != model.JobCompleted {
		t.Fatalf("Expected completed job, got %q (error: %s)", done.Status, done.Error)
	}

	var cmp model.SnapshotComparison
	if err := json.Unmarshal(done.Output, &cmp); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if cmp.NetWordChange != 2 {
		t.Errorf("Expected net word change 2, got %d", cmp.NetWordChange)
	}
	if !strings.Contains(cmp.Summary, "+2 words") {
		t.Errorf("Expected summary to mention +2 words, got %q", cmp.Summary)
	}
}

func TestWritingVelocityJob(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	putTestSnapshot(t, rig, "s1", base, "<p>start</p>", 100, 1)
	putTestSnapshot(t, rig, "s2", base.Add(2*time.Hour), "<p>more</p>", 600, 1)
	job := enqueue(t, rig, model.JobWritingVelocity, nil, 1)

	if _, err := rig.worker.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	done, _ := rig.queue.Get(ctx, job.ID)
	if done.Status != model.JobCompleted {
		t.Fatalf("Expected completed job, got %q (error: %s)", done.Status, done.Error)
	}

	var out VelocityReport
	if err := json.Unmarshal(done.Output, &out); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if out.NetWordChange != 500 {
		t.Errorf("Expected net word change 500, got %d", out.NetWordChange)
	}
	if out.WordsPerHour != 250 {
		t.Errorf("Expected 250 words/hour, got %v", out.WordsPerHour)
	}
}

func TestDailySummaryWindow(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	end := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	putTestSnapshot(t, rig, "outside", end.Add(-36*time.Hour), "<p>old</p>", 50, 1)
	putTestSnapshot(t, rig, "inside-1", end.Add(-20*time.Hour), "<p>a</p>", 100, 1)
	putTestSnapshot(t, rig, "inside-2", end.Add(-2*time.Hour), "<p>b</p>", 200, 2)
	job := enqueue(t, rig, model.JobDailySummary,
		map[string]time.Time{"end_of_window": end}, 1)

	if _, err := rig.worker.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	done, _ := rig.queue.Get(ctx, job.ID)
	if done.Status != model.JobCompleted {
		t.Fatalf("Expected completed job, got %q (error: %s)", done.Status, done.Error)
	}

	var out SummaryReport
	if err := json.Unmarshal(done.Output, &out); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if out.Stats.SnapshotCount != 2 {
		t.Errorf("Expected 2 snapshots inside the window, got %d", out.Stats.SnapshotCount)
	}
}

func TestStructureAnalysisJob(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	base := time.Now().UTC().Add(-2 * time.Hour)
	putTestSnapshot(t, rig, "s1", base, "<p>x</p>", 10, 2)
	err := rig.archive.PutSnapshot(ctx, "doc-1", &model.ContentSnapshot{
		ID:          "s2",
		Timestamp:   base.Add(time.Hour),
		Source:      model.SourceAutosave,
		Fingerprint: "fp-s2",
		WordCount:   12,
		SceneCount:  4,
		Content: model.DocumentContent{
			Body: "<p>y</p>",
			Outline: []model.Chapter{
				{ID: "ch-1", Title: "One", Scenes: []model.Scene{
					{ID: "sc-1"}, {ID: "sc-2"}, {ID: "sc-3"}, {ID: "sc-4"},
				}},
			},
		},
	})
	if err != nil {
		t.Fatalf("PutSnapshot failed: %v", err)
	}
	job := enqueue(t, rig, model.JobStructureAnalysis, nil, 1)

	if _, err := rig.worker.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	done, _ := rig.queue.Get(ctx, job.ID)
	if done.Status != model.JobCompleted {
		t.Fatalf("Expected completed job, got %q (error: %s)", done.Status, done.Error)
	}

	var out StructureReport
	if err := json.Unmarshal(done.Output, &out); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if out.SceneCountDelta != 2 {
		t.Errorf("Expected scene count delta 2, got %d", out.SceneCountDelta)
	}
	if out.StructureChanges != 1 {
		t.Errorf("Expected 1 structure change, got %d", out.StructureChanges)
	}
	if !strings.Contains(out.OutlineDiff, "chapter ch-1") {
		t.Errorf("Expected outline diff to mention the added chapter, got %q", out.OutlineDiff)
	}
}

func TestHandlerFailureDoesNotStopBatch(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	putTestSnapshot(t, rig, "snap-1", time.Now().UTC(), "<p>ok</p>", 1, 1)
	// References a snapshot that does not exist; single attempt so it
	// terminates immediately.
	bad := enqueue(t, rig, model.JobSnapshotAnalysis, map[string]string{"snapshot_id": "missing"}, 1)
	good := enqueue(t, rig, model.JobSnapshotAnalysis, map[string]string{"snapshot_id": "snap-1"}, 1)

	n, err := rig.worker.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected both jobs processed, got %d", n)
	}

	badJob, _ := rig.queue.Get(ctx, bad.ID)
	if badJob.Status != model.JobFailed {
		t.Errorf("Expected failed job, got %q", badJob.Status)
	}
	if !strings.Contains(badJob.Error, "not found") {
		t.Errorf("Expected retained failure message, got %q", badJob.Error)
	}
	goodJob, _ := rig.queue.Get(ctx, good.ID)
	if goodJob.Status != model.JobCompleted {
		t.Errorf("Expected completed job, got %q (error: %s)", goodJob.Status, goodJob.Error)
	}
}

func TestBatchSizeCap(t *testing.T) {
	rig := newTestRig(t, Config{BatchSize: 2})
	ctx := context.Background()

	putTestSnapshot(t, rig, "snap-1", time.Now().UTC(), "<p>x</p>", 1, 1)
	for i := 0; i < 3; i++ {
		enqueue(t, rig, model.JobSnapshotAnalysis, map[string]string{"snapshot_id": "snap-1"}, 1)
	}

	n, err := rig.worker.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected batch capped at 2, got %d", n)
	}

	n, err = rig.worker.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected remaining job processed, got %d", n)
	}
}

func TestSessionSummaryJob(t *testing.T) {
	// The worker only needs the Archive contract, so this runs against the
	// in-memory double instead of SQLite.
	db, err := sqlitedb.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	q, err := queue.NewQueue(db, queue.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	arch := testutil.NewDummyArchive()
	w := NewWorker(DefaultConfig(), q, arch, nil)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		err := arch.PutSnapshot(ctx, "doc-1", &model.ContentSnapshot{
			ID: id, Timestamp: base.Add(time.Duration(i) * time.Hour),
			Source: model.SourceAutosave, Fingerprint: "fp-" + id,
			WordCount: 100 * (i + 1), SceneCount: 1,
			Content: model.DocumentContent{Body: "<p>x</p>"},
		})
		if err != nil {
			t.Fatalf("PutSnapshot failed: %v", err)
		}
	}

	job, err := q.Enqueue(ctx, &model.AnalyticsJob{
		DocumentID: "doc-1", Type: model.JobSessionSummary, MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	done, _ := q.Get(ctx, job.ID)
	if done.Status != model.JobCompleted {
		t.Fatalf("Expected completed job, got %q (error: %s)", done.Status, done.Error)
	}
	var out SummaryReport
	if err := json.Unmarshal(done.Output, &out); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if out.Stats.SnapshotCount != 3 {
		t.Errorf("Expected 3 snapshots summarized, got %d", out.Stats.SnapshotCount)
	}
	if len(out.Changes) != 2 {
		t.Errorf("Expected 2 per-step change summaries, got %d", len(out.Changes))
	}
}

// cancelOnRead cancels one job the moment its handler reads a snapshot,
// simulating a client cancel landing while the job is in flight.
type cancelOnRead struct {
	interfaces.Archive
	queue     *queue.Queue
	jobID     string
	cancelled bool
}

func (a *cancelOnRead) GetSnapshot(ctx context.Context, id string) (*model.ContentSnapshot, error) {
	if !a.cancelled {
		a.cancelled = true
		if err := a.queue.Cancel(ctx, a.jobID); err != nil {
			return nil, err
		}
	}
	return a.Archive.GetSnapshot(ctx, id)
}

func TestCancelMidFlightDiscardsResult(t *testing.T) {
	rig := newTestRig(t, DefaultConfig())
	ctx := context.Background()

	body := "<p>He waited. Nothing moved.</p>"
	putTestSnapshot(t, rig, "snap-1", time.Now().UTC(), body, 5, 1)

	input, _ := json.Marshal(map[string]string{"snapshot_id": "snap-1"})
	victim, err := rig.queue.Enqueue(ctx, &model.AnalyticsJob{
		DocumentID: "doc-1",
		Type:       model.JobSnapshotAnalysis,
		Input:      input,
		Priority:   1,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	follower, err := rig.queue.Enqueue(ctx, &model.AnalyticsJob{
		DocumentID: "doc-1",
		Type:       model.JobSnapshotAnalysis,
		Input:      input,
		Priority:   200,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	w := NewWorker(DefaultConfig(), rig.queue,
		&cancelOnRead{Archive: rig.archive, queue: rig.queue, jobID: victim.ID}, nil)

	n, err := w.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch failed after mid-flight cancel: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 jobs processed, got %d", n)
	}

	got, _ := rig.queue.Get(ctx, victim.ID)
	if got.Status != model.JobCancelled {
		t.Errorf("Expected cancelled job to stay cancelled, got %q", got.Status)
	}
	if len(got.Output) != 0 {
		t.Errorf("Expected discarded output on cancelled job, got %s", got.Output)
	}

	got, _ = rig.queue.Get(ctx, follower.ID)
	if got.Status != model.JobCompleted {
		t.Errorf("Expected follow-up job completed, got %q (error: %s)", got.Status, got.Error)
	}
}
