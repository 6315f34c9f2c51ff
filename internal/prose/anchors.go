package prose

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AnchorAttr is the attribute carrying structural marker identifiers in the
// rich-text body.
const AnchorAttr = "data-anchor-id"

// ExtractAnchorIDs discovers structural marker identifiers embedded in the
// body, in document order. Duplicate ids are kept; the fingerprinter
// canonicalizes them.
func ExtractAnchorIDs(body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("prose: parse body: %w", err)
	}

	var ids []string
	doc.Find("[" + AnchorAttr + "]").Each(func(_ int, sel *goquery.Selection) {
		if id, ok := sel.Attr(AnchorAttr); ok && id != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}
