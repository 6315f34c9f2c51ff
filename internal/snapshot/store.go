// Package snapshot implements the bounded, per-document collection of
// point-in-time content captures, with restore, comparison, and versioned
// export/import.
package snapshot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tempandmajor/ottowrite-sub007/internal/diff"
	"github.com/tempandmajor/ottowrite-sub007/internal/fingerprint"
	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/prose"
)

// ErrInvalidSource is returned when CreateSnapshot is given an unknown
// provenance tag.
var ErrInvalidSource = errors.New("snapshot: invalid source")

// CreateOptions carries the provenance metadata for a new snapshot.
type CreateOptions struct {
	Source model.Source
	Label  string

	// WordCount overrides the computed word count when non-nil (callers
	// that already track it avoid re-counting).
	WordCount *int
}

// Store is a bounded collection of snapshots for a single document. All
// mutation goes through its methods; eviction and current-pointer adjustment
// happen atomically under one lock so the pointer can never reference an
// evicted id.
type Store struct {
	cfg    *Config
	logger logging.Logger
	engine *diff.Engine

	mu        sync.Mutex
	snaps     map[string]*model.ContentSnapshot
	order     []string // ids ordered oldest-first by timestamp
	currentID string
}

// NewStore constructs a snapshot store. A nil config uses defaults; callers
// must pass a non-nil logger.
func NewStore(cfg *Config, logger interfaces.Logger) (*Store, error) {
	if logger == nil {
		return nil, errors.New("snapshot: nil logger provided")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		engine: diff.NewEngine(),
		snaps:  make(map[string]*model.ContentSnapshot),
	}, nil
}

// CreateSnapshot captures the given content, computes its fingerprint and
// derived metrics, makes it the current snapshot, and evicts beyond the
// retention bound. It fails only on malformed content.
func (st *Store) CreateSnapshot(content model.DocumentContent, opts CreateOptions) (*model.ContentSnapshot, error) {
	if opts.Source == "" {
		opts.Source = model.SourceManual
	}
	if !opts.Source.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, opts.Source)
	}

	fp, err := fingerprint.ComputeContent(content)
	if err != nil {
		return nil, fmt.Errorf("snapshot: fingerprint content: %w", err)
	}

	wordCount := 0
	if opts.WordCount != nil {
		wordCount = *opts.WordCount
	} else {
		wordCount = prose.CountWords(content.Body)
	}

	snap := &model.ContentSnapshot{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Source:      opts.Source,
		Label:       opts.Label,
		Fingerprint: fp,
		WordCount:   wordCount,
		SceneCount:  content.SceneCount(),
		Content:     content.Clone(),
	}

	st.mu.Lock()
	st.insertLocked(snap)
	st.currentID = snap.ID
	evicted := st.evictLocked()
	st.mu.Unlock()

	if evicted > 0 {
		st.logger.Debug("snapshots evicted",
			logging.Field{Key: "count", Value: evicted},
			logging.Field{Key: "limit", Value: st.cfg.limit()})
	}
	return snap.Clone(), nil
}

// insertLocked places the snapshot in timestamp order. Inserts are normally
// appends since timestamps come from the wall clock at creation; imported
// snapshots may land in the middle.
func (st *Store) insertLocked(snap *model.ContentSnapshot) {
	st.snaps[snap.ID] = snap
	i := len(st.order)
	for i > 0 {
		prev := st.snaps[st.order[i-1]]
		if !prev.Timestamp.After(snap.Timestamp) {
			break
		}
		i--
	}
	st.order = append(st.order, "")
	copy(st.order[i+1:], st.order[i:])
	st.order[i] = snap.ID
}

// evictLocked removes oldest-first entries until the retention bound holds.
// The current snapshot is evicted last: only when it is the sole remaining
// entry and the bound is zero.
func (st *Store) evictLocked() int {
	limit := st.cfg.limit()
	evicted := 0
	for len(st.order) > limit {
		victim := ""
		for _, id := range st.order {
			if id != st.currentID {
				victim = id
				break
			}
		}
		if victim == "" {
			// Only the current snapshot remains; the bound must be zero.
			victim = st.currentID
			st.currentID = ""
		}
		st.removeLocked(victim)
		evicted++
	}
	return evicted
}

func (st *Store) removeLocked(id string) {
	delete(st.snaps, id)
	for i, other := range st.order {
		if other == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
}

// GetSnapshot returns the snapshot by id, or nil on miss.
func (st *Store) GetSnapshot(id string) *model.ContentSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snaps[id].Clone()
}

// GetCurrentSnapshot returns the snapshot the current pointer references, or
// nil when unset.
func (st *Store) GetCurrentSnapshot() *model.ContentSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.currentID == "" {
		return nil
	}
	return st.snaps[st.currentID].Clone()
}

// GetAllSnapshots returns every retained snapshot, newest first.
func (st *Store) GetAllSnapshots() []*model.ContentSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*model.ContentSnapshot, 0, len(st.order))
	for i := len(st.order) - 1; i >= 0; i-- {
		out = append(out, st.snaps[st.order[i]].Clone())
	}
	return out
}

// GetSnapshotsBySource returns snapshots with the given provenance tag,
// newest first.
func (st *Store) GetSnapshotsBySource(source model.Source) []*model.ContentSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*model.ContentSnapshot
	for i := len(st.order) - 1; i >= 0; i-- {
		if s := st.snaps[st.order[i]]; s.Source == source {
			out = append(out, s.Clone())
		}
	}
	return out
}

// GetSnapshotsInRange returns snapshots captured in [from, to], newest first.
func (st *Store) GetSnapshotsInRange(from, to time.Time) []*model.ContentSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*model.ContentSnapshot
	for i := len(st.order) - 1; i >= 0; i-- {
		s := st.snaps[st.order[i]]
		if s.Timestamp.Before(from) || s.Timestamp.After(to) {
			continue
		}
		out = append(out, s.Clone())
	}
	return out
}

// RestoreSnapshot moves the current pointer to the given id and returns the
// snapshot, or nil if the id is unknown. The snapshot itself is not mutated.
func (st *Store) RestoreSnapshot(id string) *model.ContentSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	snap, ok := st.snaps[id]
	if !ok {
		return nil
	}
	st.currentID = id
	return snap.Clone()
}

// DeleteSnapshot removes the snapshot. When it was current, the pointer moves
// to the newest remaining snapshot, or becomes unset. Returns whether the id
// existed.
func (st *Store) DeleteSnapshot(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.snaps[id]; !ok {
		return false
	}
	st.removeLocked(id)
	if st.currentID == id {
		st.currentID = ""
		if n := len(st.order); n > 0 {
			st.currentID = st.order[n-1]
		}
	}
	return true
}

// Load seeds the store with existing snapshots (e.g. read back from durable
// storage), replacing current contents. The newest snapshot becomes current
// and the retention bound is enforced.
func (st *Store) Load(snaps []*model.ContentSnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snaps = make(map[string]*model.ContentSnapshot)
	st.order = nil
	st.currentID = ""
	for _, s := range snaps {
		if s == nil || s.ID == "" {
			continue
		}
		st.insertLocked(s.Clone())
	}
	if n := len(st.order); n > 0 {
		st.currentID = st.order[n-1]
	}
	st.evictLocked()
}

// Count returns the number of retained snapshots.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.order)
}

// Clear drops all snapshots and unsets the current pointer.
func (st *Store) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snaps = make(map[string]*model.ContentSnapshot)
	st.order = nil
	st.currentID = ""
}

// CompareSnapshots diffs from → to. Returns nil when either id is missing.
func (st *Store) CompareSnapshots(fromID, toID string) (*model.SnapshotComparison, error) {
	st.mu.Lock()
	from := st.snaps[fromID]
	to := st.snaps[toID]
	st.mu.Unlock()
	if from == nil || to == nil {
		return nil, nil
	}
	return st.engine.Compare(from, to)
}

// CompareWithCurrent diffs the given snapshot against the current one.
// Returns nil when either side is missing.
func (st *Store) CompareWithCurrent(id string) (*model.SnapshotComparison, error) {
	st.mu.Lock()
	current := st.currentID
	st.mu.Unlock()
	if current == "" {
		return nil, nil
	}
	return st.CompareSnapshots(id, current)
}

// FindSignificant returns retained snapshots whose diff from their immediate
// predecessor exceeds thresholdPercent (0 uses the engine default).
func (st *Store) FindSignificant(thresholdPercent float64) ([]*model.ContentSnapshot, error) {
	st.mu.Lock()
	snaps := make([]*model.ContentSnapshot, 0, len(st.order))
	for _, id := range st.order {
		snaps = append(snaps, st.snaps[id])
	}
	st.mu.Unlock()
	sig, err := st.engine.FindSignificant(snaps, thresholdPercent)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ContentSnapshot, len(sig))
	for i, s := range sig {
		out[i] = s.Clone()
	}
	return out, nil
}

// Aggregate computes summary statistics over the retained snapshots.
func (st *Store) Aggregate() *diff.AggregateStats {
	st.mu.Lock()
	snaps := make([]*model.ContentSnapshot, 0, len(st.order))
	for _, id := range st.order {
		snaps = append(snaps, st.snaps[id])
	}
	st.mu.Unlock()
	return st.engine.Aggregate(snaps)
}
