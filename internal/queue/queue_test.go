package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/sqlitedb"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	db, err := sqlitedb.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	q, err := NewQueue(db, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	return q
}

func enqueueTestJob(t *testing.T, q *Queue, jobType model.JobType, priority int) *model.AnalyticsJob {
	t.Helper()
	job, err := q.Enqueue(context.Background(), &model.AnalyticsJob{
		DocumentID: "doc-1",
		Type:       jobType,
		Priority:   priority,
	})
	if err != nil {
		t.Fatalf("Failed to enqueue job: %v", err)
	}
	return job
}

func TestEnqueueDefaults(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.Enqueue(context.Background(), &model.AnalyticsJob{
		DocumentID: "doc-1",
		Type:       model.JobWritingVelocity,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if job.ID == "" {
		t.Error("Expected generated id, got empty string")
	}
	if job.Status != model.JobQueued {
		t.Errorf("Expected status queued, got %q", job.Status)
	}
	if job.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts 3, got %d", job.MaxAttempts)
	}
	if job.Priority != 100 {
		t.Errorf("Expected default priority 100, got %d", job.Priority)
	}
}

func TestEnqueueRejectsInvalid(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, &model.AnalyticsJob{DocumentID: "doc-1", Type: "bogus"}); err == nil {
		t.Error("Expected error for unknown job type, got nil")
	}
	if _, err := q.Enqueue(ctx, &model.AnalyticsJob{Type: model.JobDailySummary}); err == nil {
		t.Error("Expected error for missing document id, got nil")
	}
	if _, err := q.Enqueue(ctx, nil); err == nil {
		t.Error("Expected error for nil job, got nil")
	}
}

func TestClaimOrdersByPriorityThenAge(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	low := enqueueTestJob(t, q, model.JobDailySummary, 200)
	urgentOld := enqueueTestJob(t, q, model.JobSnapshotAnalysis, 10)
	time.Sleep(2 * time.Millisecond)
	urgentNew := enqueueTestJob(t, q, model.JobSnapshotComparison, 10)

	first, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if first.ID != urgentOld.ID {
		t.Errorf("Expected oldest urgent job %s first, got %s", urgentOld.ID, first.ID)
	}
	if first.Status != model.JobRunning {
		t.Errorf("Expected status running, got %q", first.Status)
	}
	if first.Attempts != 1 {
		t.Errorf("Expected attempts 1 after claim, got %d", first.Attempts)
	}
	if first.StartedAt == nil {
		t.Error("Expected started_at to be set on claim")
	}

	second, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if second.ID != urgentNew.ID {
		t.Errorf("Expected %s second, got %s", urgentNew.ID, second.ID)
	}

	third, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if third.ID != low.ID {
		t.Errorf("Expected low-priority job %s last, got %s", low.ID, third.ID)
	}

	empty, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim on empty queue failed: %v", err)
	}
	if empty != nil {
		t.Errorf("Expected nil job on empty queue, got %+v", empty)
	}
}

func TestClaimExclusivity(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	const jobs = 8
	for i := 0; i < jobs; i++ {
		enqueueTestJob(t, q, model.JobSessionSummary, 100)
	}

	var mu sync.Mutex
	claimed := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := q.Claim(ctx)
				if err != nil {
					t.Errorf("Claim failed: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimed) != jobs {
		t.Errorf("Expected %d distinct jobs claimed, got %d", jobs, len(claimed))
	}
	for id, n := range claimed {
		if n != 1 {
			t.Errorf("Job %s claimed %d times, expected exactly once", id, n)
		}
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	enqueueTestJob(t, q, model.JobStructureAnalysis, 100)
	job, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	output := json.RawMessage(`{"scenes":12}`)
	if err := q.Complete(ctx, job.ID, output, 40*time.Millisecond); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := q.Complete(ctx, job.ID, output, 40*time.Millisecond); err != nil {
		t.Errorf("Expected repeated Complete to be a no-op, got %v", err)
	}

	got, err := q.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.JobCompleted {
		t.Errorf("Expected status completed, got %q", got.Status)
	}
	if string(got.Output) != string(output) {
		t.Errorf("Expected output %s, got %s", output, got.Output)
	}
	if got.ProcessingTime != 40*time.Millisecond {
		t.Errorf("Expected processing time 40ms, got %v", got.ProcessingTime)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
}

func TestCompleteRejectsNonRunning(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job := enqueueTestJob(t, q, model.JobWeeklySummary, 100)
	if err := q.Complete(ctx, job.ID, nil, 0); err == nil {
		t.Error("Expected error completing a queued job, got nil")
	}
	if err := q.Complete(ctx, "missing", nil, 0); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestFailRetriesUntilExhausted(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, &model.AnalyticsJob{
		DocumentID:  "doc-1",
		Type:        model.JobSnapshotAnalysis,
		MaxAttempts: 2,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// First attempt: fails with one attempt remaining, so the job requeues.
	claimed, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := q.Fail(ctx, claimed.ID, "transient"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, _ := q.Get(ctx, job.ID)
	if got.Status != model.JobQueued {
		t.Errorf("Expected requeued job, got status %q", got.Status)
	}
	if got.Error != "transient" {
		t.Errorf("Expected retained error message, got %q", got.Error)
	}

	// Second attempt: attempts reaches max, job terminates as failed.
	claimed, err = q.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claimed.Attempts != 2 {
		t.Errorf("Expected attempts 2 on second claim, got %d", claimed.Attempts)
	}
	if err := q.Fail(ctx, claimed.ID, "still broken"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	got, _ = q.Get(ctx, job.ID)
	if got.Status != model.JobFailed {
		t.Errorf("Expected failed job after exhausted attempts, got %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completed_at on terminal failure")
	}

	if next, _ := q.Claim(ctx); next != nil {
		t.Errorf("Expected no claimable jobs after terminal failure, got %s", next.ID)
	}
}

func TestCancelRules(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	queued := enqueueTestJob(t, q, model.JobDailySummary, 100)
	if err := q.Cancel(ctx, queued.ID); err != nil {
		t.Fatalf("Cancel of queued job failed: %v", err)
	}
	got, _ := q.Get(ctx, queued.ID)
	if got.Status != model.JobCancelled {
		t.Errorf("Expected cancelled, got %q", got.Status)
	}

	if err := q.Cancel(ctx, queued.ID); !errors.Is(err, ErrJobTerminal) {
		t.Errorf("Expected ErrJobTerminal on second cancel, got %v", err)
	}
	if err := q.Cancel(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}

	running := enqueueTestJob(t, q, model.JobSessionSummary, 100)
	if _, err := q.Claim(ctx); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := q.Cancel(ctx, running.ID); err != nil {
		t.Fatalf("Cancel of running job failed: %v", err)
	}
	// The in-flight worker's outcome is discarded either way; both paths
	// report ErrJobTerminal so callers can tell this apart from a real
	// storage failure.
	if err := q.Complete(ctx, running.ID, nil, 0); !errors.Is(err, ErrJobTerminal) {
		t.Errorf("Expected ErrJobTerminal completing a cancelled job, got %v", err)
	}
	if err := q.Fail(ctx, running.ID, "boom"); !errors.Is(err, ErrJobTerminal) {
		t.Errorf("Expected ErrJobTerminal failing a cancelled job, got %v", err)
	}
	got, _ = q.Get(ctx, running.ID)
	if got.Status != model.JobCancelled {
		t.Errorf("Expected job to stay cancelled, got %q", got.Status)
	}
	if got.Error != "" {
		t.Errorf("Expected no error recorded on cancelled job, got %q", got.Error)
	}
}

func TestWaitForCompletion(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job := enqueueTestJob(t, q, model.JobWritingVelocity, 100)

	go func() {
		time.Sleep(20 * time.Millisecond)
		claimed, err := q.Claim(ctx)
		if err != nil || claimed == nil {
			return
		}
		q.Complete(ctx, claimed.ID, json.RawMessage(`{"velocity":250}`), time.Millisecond)
	}()

	done, err := q.WaitForCompletion(ctx, job.ID, time.Second)
	if err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}
	if done.Status != model.JobCompleted {
		t.Errorf("Expected completed, got %q", done.Status)
	}
}

func TestWaitForCompletionTimeout(t *testing.T) {
	q := newTestQueue(t)

	job := enqueueTestJob(t, q, model.JobWeeklySummary, 100)
	got, err := q.WaitForCompletion(context.Background(), job.ID, 30*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("Expected ErrWaitTimeout, got %v", err)
	}
	if got == nil || got.Status != model.JobQueued {
		t.Errorf("Expected last observed queued job, got %+v", got)
	}
}

func TestWaitForCompletionFailedJob(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, &model.AnalyticsJob{
		DocumentID:  "doc-1",
		Type:        model.JobSnapshotComparison,
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	claimed, _ := q.Claim(ctx)
	if err := q.Fail(ctx, claimed.ID, "boom"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	got, err := q.WaitForCompletion(ctx, job.ID, time.Second)
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("Expected ErrJobFailed, got %v", err)
	}
	if got.Error != "boom" {
		t.Errorf("Expected retained error message, got %q", got.Error)
	}
}

func TestCountByStatus(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	enqueueTestJob(t, q, model.JobDailySummary, 100)
	enqueueTestJob(t, q, model.JobDailySummary, 100)
	claimed, _ := q.Claim(ctx)
	if claimed == nil {
		t.Fatal("Expected a claimable job")
	}

	counts, err := q.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[model.JobQueued] != 1 {
		t.Errorf("Expected 1 queued job, got %d", counts[model.JobQueued])
	}
	if counts[model.JobRunning] != 1 {
		t.Errorf("Expected 1 running job, got %d", counts[model.JobRunning])
	}
}

func TestListByDocument(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	enqueueTestJob(t, q, model.JobDailySummary, 100)
	if _, err := q.Enqueue(ctx, &model.AnalyticsJob{DocumentID: "other", Type: model.JobDailySummary}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	jobs, err := q.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job for doc-1, got %d", len(jobs))
	}
	if jobs[0].DocumentID != "doc-1" {
		t.Errorf("Expected document doc-1, got %q", jobs[0].DocumentID)
	}
}
