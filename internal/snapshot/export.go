package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// FormatVersion identifies the export document layout. Import rejects any
// other value.
const FormatVersion = 1

// ExportDocument is the self-describing serialization of a snapshot
// collection.
type ExportDocument struct {
	FormatVersion int    `json:"format_version"`
	ExportedAt    string `json:"exported_at"` // ISO-8601
	CurrentID     string `json:"current_id,omitempty"`

	Snapshots []exportEntry `json:"snapshots"`
}

// exportEntry mirrors model.ContentSnapshot with an ISO-8601 timestamp so the
// document stays readable outside Go.
type exportEntry struct {
	ID          string                `json:"id"`
	Timestamp   string                `json:"timestamp"`
	Source      model.Source          `json:"source"`
	Label       string                `json:"label,omitempty"`
	Fingerprint string                `json:"fingerprint"`
	WordCount   int                   `json:"word_count"`
	SceneCount  int                   `json:"scene_count"`
	Content     model.DocumentContent `json:"content"`
}

// Export serializes the full collection, oldest snapshot first.
func (st *Store) Export() ([]byte, error) {
	st.mu.Lock()
	doc := ExportDocument{
		FormatVersion: FormatVersion,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		CurrentID:     st.currentID,
		Snapshots:     make([]exportEntry, 0, len(st.order)),
	}
	for _, id := range st.order {
		s := st.snaps[id]
		doc.Snapshots = append(doc.Snapshots, exportEntry{
			ID:          s.ID,
			Timestamp:   s.Timestamp.UTC().Format(time.RFC3339Nano),
			Source:      s.Source,
			Label:       s.Label,
			Fingerprint: s.Fingerprint,
			WordCount:   s.WordCount,
			SceneCount:  s.SceneCount,
			Content:     s.Content.Clone(),
		})
	}
	st.mu.Unlock()

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal export: %w", err)
	}
	return data, nil
}

// Import replaces the collection with the contents of an export document.
// Unknown format versions are rejected before any state is touched; the
// retention bound is enforced after loading.
func (st *Store) Import(data []byte) error {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("snapshot: parse export document: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return fmt.Errorf("snapshot: unsupported format version %d (want %d)", doc.FormatVersion, FormatVersion)
	}

	snaps := make([]*model.ContentSnapshot, 0, len(doc.Snapshots))
	for _, e := range doc.Snapshots {
		if e.ID == "" {
			return fmt.Errorf("snapshot: import entry missing id")
		}
		ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			return fmt.Errorf("snapshot: import entry %s: bad timestamp: %w", e.ID, err)
		}
		snaps = append(snaps, &model.ContentSnapshot{
			ID:          e.ID,
			Timestamp:   ts,
			Source:      e.Source,
			Label:       e.Label,
			Fingerprint: e.Fingerprint,
			WordCount:   e.WordCount,
			SceneCount:  e.SceneCount,
			Content:     e.Content,
		})
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.snaps = make(map[string]*model.ContentSnapshot, len(snaps))
	st.order = nil
	for _, s := range snaps {
		st.insertLocked(s)
	}
	st.currentID = ""
	if _, ok := st.snaps[doc.CurrentID]; ok {
		st.currentID = doc.CurrentID
	} else if n := len(st.order); n > 0 {
		st.currentID = st.order[n-1]
	}
	st.evictLocked()
	return nil
}
