package model

// Scene is a single scene inside a chapter of the document outline.
type Scene struct {
	// ID is a stable identifier referencing the scene marker in the body.
	ID string `json:"id"`

	// Title is the scene heading shown in the outline.
	Title string `json:"title,omitempty"`

	// Summary is an optional one-line synopsis.
	Summary string `json:"summary,omitempty"`
}

// Chapter is an ordered group of scenes in the document outline.
type Chapter struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Scenes []Scene `json:"scenes,omitempty"`
}

// DocumentContent is the editable state of a document: the serialized
// rich-text body, the ordered outline structure, and the set of anchor
// identifiers referencing structural markers embedded in the body.
type DocumentContent struct {
	// Body contains the serialized rich-text (HTML) body.
	Body string `json:"body"`

	// Outline is the ordered chapter/scene structure.
	Outline []Chapter `json:"outline,omitempty"`

	// AnchorIDs references structural markers embedded in the body.
	// Order is not significant; the fingerprinter canonicalizes it.
	AnchorIDs []string `json:"anchor_ids,omitempty"`
}

// Clone returns a deep copy so callers can hold content without aliasing
// the original slices.
func (c DocumentContent) Clone() DocumentContent {
	out := DocumentContent{Body: c.Body}
	if c.Outline != nil {
		out.Outline = make([]Chapter, len(c.Outline))
		for i, ch := range c.Outline {
			cc := Chapter{ID: ch.ID, Title: ch.Title}
			if ch.Scenes != nil {
				cc.Scenes = append([]Scene(nil), ch.Scenes...)
			}
			out.Outline[i] = cc
		}
	}
	if c.AnchorIDs != nil {
		out.AnchorIDs = append([]string(nil), c.AnchorIDs...)
	}
	return out
}

// SceneCount returns the total number of scenes across all chapters.
func (c DocumentContent) SceneCount() int {
	n := 0
	for _, ch := range c.Outline {
		n += len(ch.Scenes)
	}
	return n
}
