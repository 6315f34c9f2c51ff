// Package autosave implements the per-document save coordinator: a state
// machine that debounces save attempts, detects conflicts via fingerprint
// comparison, and tracks connectivity transitions.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/fingerprint"
	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/prose"
)

// State is the externally observable autosave status. Exactly one value holds
// at any instant.
type State string

const (
	StateIdle     State = "idle"
	StatePending  State = "pending"
	StateSaving   State = "saving"
	StateSaved    State = "saved"
	StateOffline  State = "offline"
	StateError    State = "error"
	StateConflict State = "conflict"
)

// ErrNoConflict is returned by ResolveConflict when no conflict is pending.
var ErrNoConflict = errors.New("autosave: no unresolved conflict")

// ContentProvider returns the latest editable content. The coordinator calls
// it at save execution time, never at schedule time, so a queued save always
// reflects content at least as new as the change that triggered it.
type ContentProvider func() model.DocumentContent

// Coordinator drives autosaving for one document. Cross-document instances
// are independent; a single instance serializes its own save attempts
// (single-flight with a queued follow-up).
type Coordinator struct {
	cfg        *Config
	logger     logging.Logger
	saver      interfaces.DocumentSaver
	provider   ContentProvider
	documentID string

	mu              sync.Mutex
	state           State
	baseFingerprint string
	online          bool
	dirty           bool
	gen             uint64 // bumped on every content change
	saving          bool
	queued          bool
	timer           *time.Timer
	lastConflict    *model.Conflict
	lastErr         error

	// onState, when set, observes every state transition. It is invoked
	// without the coordinator lock held.
	onState func(State)
}

// NewCoordinator constructs a coordinator seeded with the fingerprint the
// client last synced. The coordinator starts idle and online.
func NewCoordinator(cfg *Config, documentID, baseFingerprint string, saver interfaces.DocumentSaver, provider ContentProvider, logger interfaces.Logger) (*Coordinator, error) {
	if logger == nil {
		return nil, errors.New("autosave: nil logger provided")
	}
	if saver == nil {
		return nil, errors.New("autosave: nil saver provided")
	}
	if provider == nil {
		return nil, errors.New("autosave: nil content provider provided")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Coordinator{
		cfg:             cfg,
		logger:          logger,
		saver:           saver,
		provider:        provider,
		documentID:      documentID,
		state:           StateIdle,
		baseFingerprint: baseFingerprint,
		online:          true,
	}, nil
}

// OnStateChange registers an observer for state transitions. The callback
// must not call back into the coordinator.
func (c *Coordinator) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

// State returns the current autosave state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BaseFingerprint returns the fingerprint the coordinator believes is
// persisted.
func (c *Coordinator) BaseFingerprint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseFingerprint
}

// LastConflict returns the server payload of the most recent conflict, or
// nil.
func (c *Coordinator) LastConflict() *model.Conflict {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastConflict
}

// LastError returns the most recent non-conflict save error, or nil.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// setStateLocked transitions and returns a notifier to run after unlocking.
func (c *Coordinator) setStateLocked(s State) func() {
	if c.state == s {
		return func() {}
	}
	c.state = s
	fn := c.onState
	if fn == nil {
		return func() {}
	}
	return func() { fn(s) }
}

// ContentChanged notes that the document changed. When the candidate
// fingerprint equals the base, the state becomes saved with no network call;
// otherwise a debounced save is (re)scheduled.
func (c *Coordinator) ContentChanged() {
	content := c.provider()
	fp, err := fingerprint.ComputeContent(content)

	c.mu.Lock()
	c.gen++
	if err != nil {
		c.lastErr = err
		notify := c.setStateLocked(StateError)
		c.mu.Unlock()
		c.logger.Error("content fingerprint failed",
			logging.Field{Key: "document_id", Value: c.documentID},
			logging.Field{Key: "error", Value: err.Error()})
		notify()
		return
	}

	if c.state == StateConflict {
		// Divergence must be resolved by a human first; keep the change
		// pending so resolution can pick it up.
		c.dirty = true
		c.mu.Unlock()
		return
	}

	if fp == c.baseFingerprint {
		c.dirty = false
		c.stopTimerLocked()
		notify := c.setStateLocked(StateSaved)
		c.mu.Unlock()
		notify()
		return
	}

	c.dirty = true
	if !c.online {
		notify := c.setStateLocked(StateOffline)
		c.mu.Unlock()
		notify()
		return
	}
	notify := c.setStateLocked(StatePending)
	c.scheduleLocked(c.cfg.debounce())
	c.mu.Unlock()
	notify()
}

// SetOnline reports a connectivity transition. Loss forces offline (unless a
// conflict takes precedence) and cancels any scheduled save; recovery
// re-schedules promptly when a change is pending.
func (c *Coordinator) SetOnline(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online

	notify := func() {}
	if !online {
		c.stopTimerLocked()
		if c.state != StateConflict {
			notify = c.setStateLocked(StateOffline)
		}
	} else if c.dirty && c.state != StateConflict {
		notify = c.setStateLocked(StatePending)
		c.scheduleLocked(c.cfg.reconnect())
	} else if c.state == StateOffline {
		notify = c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()
	notify()
}

// Flush cancels any pending timer and executes a save immediately, waiting
// for completion. It returns the save error, *model.ConflictError included;
// callers that only watch state may ignore it.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
	return c.executeSave(ctx, true)
}

// ResolveConflict ends a pending conflict. With acceptRemote the caller keeps
// the server content (and must swap it into the editor); otherwise the local
// content wins and is immediately re-saved on top of the server state. Either
// way the base fingerprint is re-seeded so normal scheduling resumes.
func (c *Coordinator) ResolveConflict(acceptRemote bool) error {
	c.mu.Lock()
	if c.state != StateConflict || c.lastConflict == nil {
		c.mu.Unlock()
		return ErrNoConflict
	}
	conflict := c.lastConflict
	c.lastConflict = nil
	c.baseFingerprint = conflict.ServerFingerprint

	var notify func()
	if acceptRemote {
		c.dirty = false
		notify = c.setStateLocked(StateSaved)
	} else {
		c.dirty = true
		notify = c.setStateLocked(StatePending)
		c.scheduleLocked(c.cfg.reconnect())
	}
	c.mu.Unlock()
	notify()
	return nil
}

// Stop cancels any scheduled save. In-flight saves run to completion.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
}

func (c *Coordinator) scheduleLocked(d time.Duration) {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(d, func() {
		if err := c.executeSave(context.Background(), false); err != nil {
			// Timer-driven saves surface errors through state only.
			c.logger.Debug("scheduled save did not complete",
				logging.Field{Key: "document_id", Value: c.documentID},
				logging.Field{Key: "error", Value: err.Error()})
		}
	})
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// executeSave runs one save attempt. Non-forced attempts give way to an
// in-flight save by queueing a follow-up; forced (Flush) attempts wait their
// turn so completion means the flush's content reached the boundary.
func (c *Coordinator) executeSave(ctx context.Context, forced bool) error {
	for {
		c.mu.Lock()
		if c.state == StateConflict {
			c.mu.Unlock()
			return &model.ConflictError{Conflict: c.lastConflict}
		}
		if !c.online {
			notify := c.setStateLocked(StateOffline)
			c.mu.Unlock()
			notify()
			return errors.New("autosave: offline")
		}
		if !c.saving {
			break
		}
		if !forced {
			c.queued = true
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}

	c.saving = true
	base := c.baseFingerprint
	notify := c.setStateLocked(StateSaving)
	c.mu.Unlock()
	notify()

	err := c.doSave(ctx, base)

	c.mu.Lock()
	c.saving = false
	rerun := c.queued
	c.queued = false
	runAgain := rerun && err == nil && c.state != StateConflict && c.online
	c.mu.Unlock()

	if runAgain {
		// Fold in whatever changed while the save was in flight.
		return c.executeSave(ctx, forced)
	}
	return err
}

// doSave performs the network round trip and applies the outcome as a state
// transition. It re-reads the latest content at execution time.
func (c *Coordinator) doSave(ctx context.Context, base string) error {
	c.mu.Lock()
	startGen := c.gen
	c.mu.Unlock()

	content := c.provider()
	fp, err := fingerprint.ComputeContent(content)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		notify := c.setStateLocked(StateError)
		c.mu.Unlock()
		notify()
		return err
	}

	if fp == base {
		// Nothing diverged; no network call.
		c.mu.Lock()
		if c.gen == startGen {
			c.dirty = false
		}
		notify := c.setStateLocked(StateSaved)
		c.mu.Unlock()
		notify()
		return nil
	}

	saveCtx, cancel := context.WithTimeout(ctx, c.cfg.saveTimeout())
	defer cancel()

	res, err := c.saver.Save(saveCtx, &model.SaveRequest{
		DocumentID:      c.documentID,
		Content:         content,
		WordCount:       prose.CountWords(content.Body),
		BaseFingerprint: base,
	})

	var conflictErr *model.ConflictError
	switch {
	case err == nil:
		c.mu.Lock()
		c.baseFingerprint = res.Fingerprint
		c.lastErr = nil
		var notify func()
		if c.gen == startGen {
			c.dirty = false
			notify = c.setStateLocked(StateSaved)
		} else {
			// Newer changes arrived mid-flight; their own schedule or the
			// queued follow-up will pick them up.
			notify = c.setStateLocked(StatePending)
		}
		c.mu.Unlock()
		c.logger.Debug("autosave complete",
			logging.Field{Key: "document_id", Value: c.documentID},
			logging.Field{Key: "fingerprint", Value: res.Fingerprint})
		notify()
		return nil

	case errors.As(err, &conflictErr):
		c.mu.Lock()
		c.lastConflict = conflictErr.Conflict
		c.stopTimerLocked()
		notify := c.setStateLocked(StateConflict)
		c.mu.Unlock()
		c.logger.Warn("autosave conflict",
			logging.Field{Key: "document_id", Value: c.documentID},
			logging.Field{Key: "server_fingerprint", Value: conflictErr.Conflict.ServerFingerprint})
		notify()
		return err

	default:
		c.mu.Lock()
		c.lastErr = err
		notify := c.setStateLocked(StateError)
		c.mu.Unlock()
		c.logger.Warn("autosave failed",
			logging.Field{Key: "document_id", Value: c.documentID},
			logging.Field{Key: "error", Value: err.Error()})
		notify()
		return err
	}
}
