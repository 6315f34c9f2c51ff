// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── DocumentSaver ─────────────────────────────────────────────────────

// DummySaver implements interfaces.DocumentSaver with scripted outcomes.
// By default every save succeeds and acknowledges the request's own
// fingerprint of record. Set Conflict or Err to force those outcomes.
type DummySaver struct {
	mu       sync.Mutex
	Requests []*model.SaveRequest

	// Delay simulates the network round trip.
	Delay time.Duration

	// Conflict, when non-nil, rejects every save with that conflict.
	Conflict *model.Conflict

	// Err, when non-nil, fails every save with a non-conflict error.
	Err error

	// AckFingerprint is returned on success. When empty the saver echoes
	// a fixed marker so tests can assert adoption.
	AckFingerprint string
}

var _ interfaces.DocumentSaver = (*DummySaver)(nil)

func (d *DummySaver) Save(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	conflict := d.Conflict
	err := d.Err
	ack := d.AckFingerprint
	d.mu.Unlock()

	if conflict != nil {
		return nil, &model.ConflictError{Conflict: conflict}
	}
	if err != nil {
		return nil, err
	}
	if ack == "" {
		ack = "ack-" + req.BaseFingerprint
	}
	return &model.SaveResult{Fingerprint: ack, UpdatedAt: time.Now().UTC()}, nil
}

// SaveCount returns how many save requests the dummy has seen.
func (d *DummySaver) SaveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// LastRequest returns the most recent save request, or nil.
func (d *DummySaver) LastRequest() *model.SaveRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Requests) == 0 {
		return nil
	}
	return d.Requests[len(d.Requests)-1]
}

// SetOutcome atomically reconfigures the scripted outcome.
func (d *DummySaver) SetOutcome(conflict *model.Conflict, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Conflict = conflict
	d.Err = err
}

// ─── Archive ───────────────────────────────────────────────────────────

// DummyArchive implements interfaces.Archive in memory.
type DummyArchive struct {
	mu    sync.Mutex
	byID  map[string]*model.ContentSnapshot
	byDoc map[string][]*model.ContentSnapshot
}

var _ interfaces.Archive = (*DummyArchive)(nil)

func NewDummyArchive() *DummyArchive {
	return &DummyArchive{
		byID:  make(map[string]*model.ContentSnapshot),
		byDoc: make(map[string][]*model.ContentSnapshot),
	}
}

func (a *DummyArchive) PutSnapshot(_ context.Context, documentID string, snap *model.ContentSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := snap.Clone()
	a.byID[cp.ID] = cp
	a.byDoc[documentID] = append(a.byDoc[documentID], cp)
	return nil
}

func (a *DummyArchive) GetSnapshot(_ context.Context, id string) (*model.ContentSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byID[id].Clone(), nil
}

func (a *DummyArchive) ListSnapshots(_ context.Context, documentID string) ([]*model.ContentSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snaps := append([]*model.ContentSnapshot(nil), a.byDoc[documentID]...)
	return snaps, nil
}

func (a *DummyArchive) ListSnapshotsInRange(_ context.Context, documentID string, from, to time.Time) ([]*model.ContentSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*model.ContentSnapshot
	for _, s := range a.byDoc[documentID] {
		if s.Timestamp.Before(from) || s.Timestamp.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
