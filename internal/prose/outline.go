package prose

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

// SerializeOutline returns the canonical JSON serialization of an outline.
// The diff engine compares these strings to decide whether structure changed.
func SerializeOutline(outline []model.Chapter) (string, error) {
	if outline == nil {
		outline = []model.Chapter{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(outline); err != nil {
		return "", fmt.Errorf("prose: serialize outline: %w", err)
	}
	return buf.String(), nil
}

// OutlineLines renders an outline one entry per line ("chapter / scene"),
// usable as input to line-based diffing.
func OutlineLines(outline []model.Chapter) []string {
	var lines []string
	for _, ch := range outline {
		lines = append(lines, fmt.Sprintf("chapter %s %q", ch.ID, ch.Title))
		for _, sc := range ch.Scenes {
			lines = append(lines, fmt.Sprintf("  scene %s %q", sc.ID, sc.Title))
		}
	}
	return lines
}
