package model

import "time"

// SaveRequest is what the autosave coordinator sends to the persistence
// boundary: the latest content plus the base fingerprint the client believes
// is currently persisted.
type SaveRequest struct {
	DocumentID      string          `json:"document_id"`
	Content         DocumentContent `json:"content"`
	WordCount       int             `json:"word_count"`
	BaseFingerprint string          `json:"base_fingerprint"`
}

// SaveResult acknowledges a successful save with the newly persisted
// fingerprint.
type SaveResult struct {
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conflict carries the server's current state when a save is rejected because
// the client's base fingerprint is stale. It always holds enough data to
// render a keep-local / accept-remote choice.
type Conflict struct {
	ServerContent     DocumentContent `json:"server_content"`
	ServerWordCount   int             `json:"server_word_count"`
	ServerUpdatedAt   time.Time       `json:"server_updated_at"`
	ServerFingerprint string          `json:"server_fingerprint"`
}

// ConflictError is returned by the persistence boundary when the stored
// fingerprint no longer matches the client's base fingerprint.
type ConflictError struct {
	Conflict *Conflict
}

func (e *ConflictError) Error() string {
	return "save rejected: base fingerprint is stale"
}
