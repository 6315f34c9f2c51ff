package server

import (
	"encoding/json"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// SaveDocumentRequest carries new document content plus the fingerprint the
// client believes is currently persisted.
type SaveDocumentRequest struct {
	Content         model.DocumentContent `json:"content"`
	WordCount       int                   `json:"word_count" example:"1200"`
	BaseFingerprint string                `json:"base_fingerprint" example:"9f86d081884c7d65"`
}

// SaveConflictResponse is returned with HTTP 409 when the base fingerprint is
// stale; it carries the server's current state so the client can resolve.
type SaveConflictResponse struct {
	Error    string          `json:"error" example:"save conflict"`
	Conflict *model.Conflict `json:"conflict"`
}

// CreateSnapshotRequest captures a snapshot of the document.
type CreateSnapshotRequest struct {
	Content *model.DocumentContent `json:"content,omitempty"`
	Source  string                 `json:"source" example:"manual"`
	Label   string                 `json:"label" example:"before rewrite"`
}

// EnqueueJobRequest schedules an analytics job for a document.
type EnqueueJobRequest struct {
	Type        string          `json:"type" example:"writing_velocity"`
	Priority    int             `json:"priority" example:"100"`
	MaxAttempts int             `json:"max_attempts" example:"3"`
	UserID      string          `json:"user_id" example:"u-1"`
	Input       json.RawMessage `json:"input,omitempty"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
