package model

import "time"

// Source tags where a snapshot came from. The tag is set at creation and
// never changes.
type Source string

const (
	SourceManual    Source = "manual"
	SourceAutosave  Source = "autosave"
	SourcePreview   Source = "preview"
	SourceAnalytics Source = "analytics"
	SourceExport    Source = "export"
)

// Valid reports whether s is one of the known provenance tags.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceAutosave, SourcePreview, SourceAnalytics, SourceExport:
		return true
	}
	return false
}

// ContentSnapshot is an immutable capture of document state at a point in
// time. Two snapshots with an equal Fingerprint are content-identical
// regardless of other metadata. Snapshots are owned by the store that created
// them and are never mutated after creation.
type ContentSnapshot struct {
	// ID is an opaque unique identifier assigned at creation, never reused.
	ID string `json:"id"`

	// Timestamp is the capture instant.
	Timestamp time.Time `json:"timestamp"`

	// Source is the provenance tag.
	Source Source `json:"source"`

	// Label is an optional human-readable annotation.
	Label string `json:"label,omitempty"`

	// Fingerprint is the content identity token computed at creation.
	Fingerprint string `json:"fingerprint"`

	// WordCount and SceneCount are derived at creation and not recomputed.
	WordCount  int `json:"word_count"`
	SceneCount int `json:"scene_count"`

	// Content is the captured document state.
	Content DocumentContent `json:"content"`
}

// Clone returns a deep copy of the snapshot.
func (s *ContentSnapshot) Clone() *ContentSnapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Content = s.Content.Clone()
	return &cp
}

// SnapshotComparison summarizes the difference between two snapshots.
type SnapshotComparison struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`

	// IsIdentical is true iff the fingerprints are equal. When true all
	// other delta fields are zero/false.
	IsIdentical bool `json:"is_identical"`

	WordsAdded    int     `json:"words_added"`
	WordsRemoved  int     `json:"words_removed"`
	NetWordChange int     `json:"net_word_change"`
	ChangePercent float64 `json:"change_percent"`

	SceneCountDelta     int  `json:"scene_count_delta"`
	HasStructureChanges bool `json:"has_structure_changes"`

	// TimeDelta is to.Timestamp - from.Timestamp.
	TimeDelta time.Duration `json:"time_delta"`

	// WritingVelocity is |net word change| per elapsed hour; 0 when the
	// elapsed time is zero or negative.
	WritingVelocity float64 `json:"writing_velocity"`

	// Summary is a human-readable description of the non-zero components,
	// or "No changes detected".
	Summary string `json:"summary"`
}
