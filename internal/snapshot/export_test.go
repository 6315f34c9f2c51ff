package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/testutil"
)

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestStore(t, 10)
	a, _ := src.CreateSnapshot(contentOfWords(3), CreateOptions{Source: model.SourceManual, Label: "first"})
	b, _ := src.CreateSnapshot(contentOfWords(7), CreateOptions{Source: model.SourceAutosave})

	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Export produced invalid JSON: %v", err)
	}
	if doc.FormatVersion != FormatVersion {
		t.Errorf("Expected format version %d, got %d", FormatVersion, doc.FormatVersion)
	}
	if doc.ExportedAt == "" {
		t.Error("Expected exported_at to be set")
	}

	dst := newTestStore(t, 10)
	if err := dst.Import(data); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if dst.Count() != 2 {
		t.Fatalf("Expected 2 snapshots after import, got %d", dst.Count())
	}

	got := dst.GetSnapshot(a.ID)
	if got == nil {
		t.Fatal("Imported store missing snapshot")
	}
	if got.Fingerprint != a.Fingerprint {
		t.Errorf("Fingerprint not preserved: %s vs %s", got.Fingerprint, a.Fingerprint)
	}
	if got.Label != "first" || got.Source != model.SourceManual {
		t.Error("Metadata not preserved across round trip")
	}
	if current := dst.GetCurrentSnapshot(); current == nil || current.ID != b.ID {
		t.Error("Expected current pointer preserved across round trip")
	}
}

func TestImport_RejectsUnknownVersion(t *testing.T) {
	st := newTestStore(t, 10)
	data := []byte(`{"format_version": 99, "exported_at": "2026-01-01T00:00:00Z", "snapshots": []}`)
	if err := st.Import(data); err == nil {
		t.Error("Expected error for unknown format version")
	}
}

func TestImport_RejectsGarbage(t *testing.T) {
	st := newTestStore(t, 10)
	if err := st.Import([]byte("not json")); err == nil {
		t.Error("Expected error for malformed document")
	}
	if err := st.Import([]byte(`{"format_version":1,"snapshots":[{"id":"x","timestamp":"bogus"}]}`)); err == nil {
		t.Error("Expected error for bad timestamp")
	}
}

func TestManager_Isolation(t *testing.T) {
	m, err := NewManager(nil, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	docA := m.Get("doc-a")
	docB := m.Get("doc-b")
	if docA == docB {
		t.Fatal("Expected distinct stores per document")
	}

	docA.CreateSnapshot(contentOfWords(1), CreateOptions{Source: model.SourceManual})
	if docB.Count() != 0 {
		t.Error("Expected document stores to be isolated")
	}
	if m.Get("doc-a") != docA {
		t.Error("Expected stable store per document id")
	}

	ids := m.DocumentIDs()
	if len(ids) != 2 || ids[0] != "doc-a" || ids[1] != "doc-b" {
		t.Errorf("Unexpected document ids: %v", ids)
	}

	m.Remove("doc-a")
	if m.Get("doc-a") == docA {
		t.Error("Expected Remove to drop the store")
	}

	m.Reset()
	if len(m.DocumentIDs()) != 0 {
		t.Error("Expected Reset to drop all stores")
	}
}
