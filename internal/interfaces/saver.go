package interfaces

import (
	"context"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// DocumentSaver is the persistence boundary the autosave coordinator talks
// to. Save either succeeds with the newly persisted fingerprint, fails with
// *model.ConflictError when the base fingerprint is stale, or fails with an
// ordinary error (network, storage).
type DocumentSaver interface {
	Save(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error)
}
