// Package diff computes word-level and structural differences between
// content snapshots, plus derived metrics such as writing velocity and
// significant-change detection.
package diff

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/prose"
)

// DefaultSignificanceThreshold is the change percentage above which a
// snapshot counts as significant relative to its predecessor.
const DefaultSignificanceThreshold = 5.0

// ErrNilSnapshot is returned when Compare is handed a nil snapshot. This is a
// contract violation by the caller, not a recoverable condition.
var ErrNilSnapshot = errors.New("diff: nil snapshot")

// Engine computes snapshot comparisons. It is stateless and safe for
// concurrent use.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine.
func NewEngine() *Engine {
	return &Engine{dmp: diffmatchpatch.New()}
}

// Compare produces the full comparison between two snapshots. Identity is
// decided by fingerprint equality; identical snapshots short-circuit to an
// all-zero comparison.
func (e *Engine) Compare(from, to *model.ContentSnapshot) (*model.SnapshotComparison, error) {
	if from == nil || to == nil {
		return nil, ErrNilSnapshot
	}

	cmp := &model.SnapshotComparison{
		FromID:    from.ID,
		ToID:      to.ID,
		TimeDelta: to.Timestamp.Sub(from.Timestamp),
	}

	if from.Fingerprint != "" && from.Fingerprint == to.Fingerprint {
		cmp.IsIdentical = true
		cmp.Summary = "No changes detected"
		return cmp, nil
	}

	fromText := prose.ExtractText(from.Content.Body)
	toText := prose.ExtractText(to.Content.Body)
	cmp.WordsAdded, cmp.WordsRemoved = e.wordDelta(fromText, toText)
	cmp.NetWordChange = to.WordCount - from.WordCount

	// A zero baseline yields 0, never a division by zero.
	if baseline := from.WordCount; baseline > 0 {
		cmp.ChangePercent = float64(cmp.WordsAdded+cmp.WordsRemoved) / float64(baseline) * 100
	}

	fromOutline, err := prose.SerializeOutline(from.Content.Outline)
	if err != nil {
		return nil, fmt.Errorf("diff: serialize from outline: %w", err)
	}
	toOutline, err := prose.SerializeOutline(to.Content.Outline)
	if err != nil {
		return nil, fmt.Errorf("diff: serialize to outline: %w", err)
	}
	cmp.HasStructureChanges = fromOutline != toOutline
	cmp.SceneCountDelta = to.SceneCount - from.SceneCount

	cmp.WritingVelocity = Velocity(cmp.NetWordChange, cmp.TimeDelta)
	cmp.Summary = buildSummary(cmp)
	return cmp, nil
}

// wordDelta counts words added and removed between two plain-text
// projections. Words are diffed as atomic tokens via the line-mode encoding.
func (e *Engine) wordDelta(fromText, toText string) (added, removed int) {
	fromWords := strings.Join(prose.Words(fromText), "\n") + "\n"
	toWords := strings.Join(prose.Words(toText), "\n") + "\n"

	chars1, chars2, lines := e.dmp.DiffLinesToChars(fromWords, toWords)
	diffs := e.dmp.DiffMain(chars1, chars2, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lines)

	for _, d := range diffs {
		n := len(prose.Words(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// OutlineDiff renders the outline change between two snapshots as a unified
// diff over the "chapter / scene" line projection. Returns "" when the
// outlines are equal.
func OutlineDiff(from, to *model.ContentSnapshot) (string, error) {
	if from == nil || to == nil {
		return "", ErrNilSnapshot
	}
	a := prose.OutlineLines(from.Content.Outline)
	b := prose.OutlineLines(to.Content.Outline)

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        appendNewlines(a),
		B:        appendNewlines(b),
		FromFile: from.ID,
		ToFile:   to.ID,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff: render outline diff: %w", err)
	}
	return text, nil
}

func appendNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// Velocity is the writing velocity in words per hour: |net| / elapsed hours,
// 0 when the elapsed time is zero or negative.
func Velocity(netWords int, elapsed time.Duration) float64 {
	hours := elapsed.Hours()
	if hours <= 0 {
		return 0
	}
	net := netWords
	if net < 0 {
		net = -net
	}
	return float64(net) / hours
}

// buildSummary renders the non-zero components of a comparison. Comparisons
// with nothing to report yield the fixed "No changes detected" string.
func buildSummary(cmp *model.SnapshotComparison) string {
	var parts []string
	if cmp.NetWordChange != 0 {
		parts = append(parts, fmt.Sprintf("%+d words", cmp.NetWordChange))
	}
	if cmp.SceneCountDelta != 0 {
		parts = append(parts, fmt.Sprintf("%+d scenes", cmp.SceneCountDelta))
	}
	if cmp.HasStructureChanges {
		parts = append(parts, "structure modified")
	}
	if len(parts) == 0 {
		if cmp.WordsAdded > 0 || cmp.WordsRemoved > 0 {
			// Net-zero edit: words were rewritten without changing the count.
			return fmt.Sprintf("%d words rewritten", max(cmp.WordsAdded, cmp.WordsRemoved))
		}
		return "No changes detected"
	}
	return strings.Join(parts, ", ")
}

// AggregateStats summarizes a set of snapshots.
type AggregateStats struct {
	SnapshotCount int     `json:"snapshot_count"`
	TotalWords    int     `json:"total_words"`
	AverageWords  float64 `json:"average_words"`
	TotalScenes   int     `json:"total_scenes"`
	AverageScenes float64 `json:"average_scenes"`

	// GrowthWordsPerDay is the overall growth rate between the earliest and
	// latest snapshot by timestamp; 0 when elapsed time is not positive.
	GrowthWordsPerDay float64 `json:"growth_words_per_day"`
}

// Aggregate computes statistics over a set of snapshots. Order of the input
// does not matter.
func (e *Engine) Aggregate(snaps []*model.ContentSnapshot) *AggregateStats {
	stats := &AggregateStats{SnapshotCount: len(snaps)}
	if len(snaps) == 0 {
		return stats
	}

	earliest, latest := snaps[0], snaps[0]
	for _, s := range snaps {
		stats.TotalWords += s.WordCount
		stats.TotalScenes += s.SceneCount
		if s.Timestamp.Before(earliest.Timestamp) {
			earliest = s
		}
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	stats.AverageWords = float64(stats.TotalWords) / float64(len(snaps))
	stats.AverageScenes = float64(stats.TotalScenes) / float64(len(snaps))

	if days := latest.Timestamp.Sub(earliest.Timestamp).Hours() / 24; days > 0 {
		stats.GrowthWordsPerDay = float64(latest.WordCount-earliest.WordCount) / days
	}
	return stats
}

// FindSignificant scans snapshots in timestamp order and returns those whose
// diff from the immediate predecessor exceeds thresholdPercent. A threshold
// of 0 or below falls back to the default.
func (e *Engine) FindSignificant(snaps []*model.ContentSnapshot, thresholdPercent float64) ([]*model.ContentSnapshot, error) {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultSignificanceThreshold
	}

	ordered := append([]*model.ContentSnapshot(nil), snaps...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var out []*model.ContentSnapshot
	for i := 1; i < len(ordered); i++ {
		cmp, err := e.Compare(ordered[i-1], ordered[i])
		if err != nil {
			return nil, err
		}
		if cmp.ChangePercent > thresholdPercent {
			out = append(out, ordered[i])
		}
	}
	return out, nil
}
