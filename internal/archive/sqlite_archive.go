// Package archive provides durable SQLite storage for documents and their
// snapshots. It backs the analytics worker (history reads) and the save
// endpoint (fingerprint-checked document writes).
package archive

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/fingerprint"
	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrDocumentNotFound is returned when no document exists with the given id.
var ErrDocumentNotFound = errors.New("document not found")

// SQLiteArchive stores documents and snapshots in SQLite. It implements
// interfaces.Archive and interfaces.DocumentSaver.
type SQLiteArchive struct {
	db     *sql.DB
	logger interfaces.Logger
}

var (
	_ interfaces.Archive       = (*SQLiteArchive)(nil)
	_ interfaces.DocumentSaver = (*SQLiteArchive)(nil)
)

// NewSQLiteArchive wires an archive over db, applying the storage schema.
func NewSQLiteArchive(db *sql.DB, logger interfaces.Logger) (*SQLiteArchive, error) {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to apply archive schema: %w", err)
	}
	return &SQLiteArchive{db: db, logger: logger}, nil
}

// Save persists the document content if the caller's base fingerprint matches
// the stored one. A mismatch returns *model.ConflictError carrying the server
// state; the stored document is untouched. A document unknown to the archive
// is created regardless of the base fingerprint.
func (a *SQLiteArchive) Save(ctx context.Context, req *model.SaveRequest) (*model.SaveResult, error) {
	if req == nil {
		return nil, fmt.Errorf("save request is nil")
	}
	if req.DocumentID == "" {
		return nil, fmt.Errorf("document id is required")
	}

	newFP, err := fingerprint.ComputeContent(req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint content: %w", err)
	}
	contentJSON, err := json.Marshal(req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	now := time.Now().UTC()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		storedContent   string
		storedWordCount int
		storedFP        string
		storedUpdated   int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT content, word_count, fingerprint, updated_at FROM documents WHERE id = ?`,
		req.DocumentID).Scan(&storedContent, &storedWordCount, &storedFP, &storedUpdated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (id, content, word_count, fingerprint, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			req.DocumentID, string(contentJSON), req.WordCount, newFP, now.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("failed to create document: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load document: %w", err)
	case storedFP != req.BaseFingerprint:
		var serverContent model.DocumentContent
		if err := json.Unmarshal([]byte(storedContent), &serverContent); err != nil {
			return nil, fmt.Errorf("failed to decode stored content: %w", err)
		}
		return nil, &model.ConflictError{Conflict: &model.Conflict{
			ServerContent:     serverContent,
			ServerWordCount:   storedWordCount,
			ServerUpdatedAt:   time.UnixMilli(storedUpdated).UTC(),
			ServerFingerprint: storedFP,
		}}
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET content = ?, word_count = ?, fingerprint = ?, updated_at = ?
			 WHERE id = ?`,
			string(contentJSON), req.WordCount, newFP, now.UnixMilli(), req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("failed to update document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit save: %w", err)
	}

	if a.logger != nil {
		a.logger.Info("document saved",
			interfaces.Field{Key: "document_id", Value: req.DocumentID},
			interfaces.Field{Key: "fingerprint", Value: newFP},
			interfaces.Field{Key: "word_count", Value: req.WordCount})
	}
	return &model.SaveResult{Fingerprint: newFP, UpdatedAt: now}, nil
}

// GetDocument returns the stored document content and its save metadata.
func (a *SQLiteArchive) GetDocument(ctx context.Context, id string) (*model.DocumentContent, *model.SaveResult, error) {
	var (
		contentJSON string
		fp          string
		updatedAt   int64
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT content, fingerprint, updated_at FROM documents WHERE id = ?`, id).
		Scan(&contentJSON, &fp, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}

	var content model.DocumentContent
	if err := json.Unmarshal([]byte(contentJSON), &content); err != nil {
		return nil, nil, fmt.Errorf("failed to decode stored content: %w", err)
	}
	return &content, &model.SaveResult{
		Fingerprint: fp,
		UpdatedAt:   time.UnixMilli(updatedAt).UTC(),
	}, nil
}

// PutSnapshot stores a snapshot under its document. Re-putting an id is an
// upsert, so replaying an export is harmless.
func (a *SQLiteArchive) PutSnapshot(ctx context.Context, documentID string, snap *model.ContentSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if documentID == "" {
		return fmt.Errorf("document id is required")
	}

	contentJSON, err := json.Marshal(snap.Content)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot content: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO snapshots
			(id, document_id, captured_at, source, label, fingerprint,
			 word_count, scene_count, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			captured_at = excluded.captured_at,
			source      = excluded.source,
			label       = excluded.label,
			fingerprint = excluded.fingerprint,
			word_count  = excluded.word_count,
			scene_count = excluded.scene_count,
			content     = excluded.content`,
		snap.ID, documentID, snap.Timestamp.UnixMilli(), string(snap.Source),
		snap.Label, snap.Fingerprint, snap.WordCount, snap.SceneCount,
		string(contentJSON))
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot by id, or nil if absent.
func (a *SQLiteArchive) GetSnapshot(ctx context.Context, id string) (*model.ContentSnapshot, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, captured_at, source, label, fingerprint, word_count,
		       scene_count, content
		FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns a document's snapshots ordered oldest-first.
func (a *SQLiteArchive) ListSnapshots(ctx context.Context, documentID string) ([]*model.ContentSnapshot, error) {
	return a.listSnapshots(ctx, `
		SELECT id, captured_at, source, label, fingerprint, word_count,
		       scene_count, content
		FROM snapshots WHERE document_id = ?
		ORDER BY captured_at ASC`, documentID)
}

// ListSnapshotsInRange returns a document's snapshots captured in [from, to],
// ordered oldest-first.
func (a *SQLiteArchive) ListSnapshotsInRange(ctx context.Context, documentID string, from, to time.Time) ([]*model.ContentSnapshot, error) {
	return a.listSnapshots(ctx, `
		SELECT id, captured_at, source, label, fingerprint, word_count,
		       scene_count, content
		FROM snapshots WHERE document_id = ? AND captured_at BETWEEN ? AND ?
		ORDER BY captured_at ASC`, documentID, from.UnixMilli(), to.UnixMilli())
}

func (a *SQLiteArchive) listSnapshots(ctx context.Context, query string, args ...any) ([]*model.ContentSnapshot, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*model.ContentSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*model.ContentSnapshot, error) {
	var (
		snap        model.ContentSnapshot
		capturedAt  int64
		source      string
		contentJSON string
	)
	err := row.Scan(&snap.ID, &capturedAt, &source, &snap.Label,
		&snap.Fingerprint, &snap.WordCount, &snap.SceneCount, &contentJSON)
	if err != nil {
		return nil, err
	}
	snap.Timestamp = time.UnixMilli(capturedAt).UTC()
	snap.Source = model.Source(source)
	if err := json.Unmarshal([]byte(contentJSON), &snap.Content); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot content: %w", err)
	}
	return &snap, nil
}
