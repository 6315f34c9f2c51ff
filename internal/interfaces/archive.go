package interfaces

import (
	"context"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// Archive is the durable snapshot store the job worker reads from and the
// API surface writes to. Implementations should be safe for concurrent use.
type Archive interface {
	// PutSnapshot stores a snapshot under its document.
	PutSnapshot(ctx context.Context, documentID string, snap *model.ContentSnapshot) error

	// GetSnapshot returns the snapshot by id, or nil if absent.
	GetSnapshot(ctx context.Context, id string) (*model.ContentSnapshot, error)

	// ListSnapshots returns a document's snapshots ordered oldest-first.
	ListSnapshots(ctx context.Context, documentID string) ([]*model.ContentSnapshot, error)

	// ListSnapshotsInRange returns a document's snapshots captured in
	// [from, to], ordered oldest-first.
	ListSnapshotsInRange(ctx context.Context, documentID string, from, to time.Time) ([]*model.ContentSnapshot, error)
}
