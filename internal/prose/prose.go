// Package prose projects rich-text document bodies onto plain text and
// derives scalar metrics (word counts, sentence lengths) from them.
package prose

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// ExtractText strips HTML markup from a serialized rich-text body and returns
// the plain-text projection. Text from script and style elements is dropped.
// Block boundaries collapse to single spaces.
func ExtractText(body string) string {
	if body == "" {
		return ""
	}

	var sb strings.Builder
	skipDepth := 0

	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed tail; either way return what we have.
			return normalizeSpace(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if skippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func skippedTag(name string) bool {
	return name == "script" || name == "style"
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Words splits plain text into words. A word is any maximal run of
// non-whitespace characters containing at least one letter or digit.
func Words(text string) []string {
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) >= 0 {
			out = append(out, f)
		}
	}
	return out
}

// CountWords returns the word count of the plain-text projection of body.
func CountWords(body string) int {
	return len(Words(ExtractText(body)))
}

// Sentences splits plain text on terminal punctuation. Empty fragments are
// dropped.
func Sentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// AverageSentenceLength returns the mean words per sentence, or 0 for empty
// text.
func AverageSentenceLength(text string) float64 {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return 0
	}
	words := 0
	for _, s := range sentences {
		words += len(Words(s))
	}
	return float64(words) / float64(len(sentences))
}

// AverageWordLength returns the mean rune length of words, or 0 for empty
// text.
func AverageWordLength(text string) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}
	runes := 0
	for _, w := range words {
		runes += len([]rune(w))
	}
	return float64(runes) / float64(len(words))
}
