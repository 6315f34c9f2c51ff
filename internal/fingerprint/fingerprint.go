// Package fingerprint computes deterministic content identity tokens for
// document state. Equal fingerprints imply equal content; the token is a
// hex-encoded SHA-256 digest over a canonical serialization.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

var (
	// ErrInvalidBody is returned when the body is not valid UTF-8.
	ErrInvalidBody = errors.New("fingerprint: body is not valid UTF-8")

	// ErrEmptyAnchorID is returned when an anchor identifier is empty.
	ErrEmptyAnchorID = errors.New("fingerprint: empty anchor id")
)

// canonicalPayload fixes the field order of the hashed serialization.
// Anchors are deduplicated and sorted lexicographically so equivalent anchor
// sets hash identically regardless of discovery order; body and outline are
// included verbatim.
type canonicalPayload struct {
	Anchors []string        `json:"anchors"`
	Body    string          `json:"body"`
	Outline []model.Chapter `json:"outline"`
}

// Compute returns the identity token for the given editable body, outline
// structure, and anchor identifiers. It is pure: identical inputs always
// yield identical output, with no randomness or wall-clock dependency.
func Compute(body string, outline []model.Chapter, anchorIDs []string) (string, error) {
	if !utf8.ValidString(body) {
		return "", ErrInvalidBody
	}

	anchors := CanonicalAnchors(anchorIDs)
	for _, a := range anchors {
		if a == "" {
			return "", ErrEmptyAnchorID
		}
	}

	if outline == nil {
		outline = []model.Chapter{}
	}

	payload := canonicalPayload{
		Anchors: anchors,
		Body:    body,
		Outline: outline,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("fingerprint: encode payload: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// ComputeContent is a convenience over Compute for a DocumentContent value.
func ComputeContent(content model.DocumentContent) (string, error) {
	return Compute(content.Body, content.Outline, content.AnchorIDs)
}

// CanonicalAnchors returns the deduplicated, lexicographically sorted copy of
// the given anchor identifiers.
func CanonicalAnchors(anchorIDs []string) []string {
	if len(anchorIDs) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(anchorIDs))
	out := make([]string, 0, len(anchorIDs))
	for _, a := range anchorIDs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
