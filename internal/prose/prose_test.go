package prose

import (
	"reflect"
	"testing"

	"github.com/tempandmajor/ottowrite-sub007/internal/model"
)

func TestExtractText(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"plain paragraph", "<p>Hello world</p>", "Hello world"},
		{"nested markup", "<div><p>One <em>two</em></p><p>three</p></div>", "One two three"},
		{"script dropped", "<p>keep</p><script>var x = 1;</script>", "keep"},
		{"style dropped", "<style>p{color:red}</style><p>text</p>", "text"},
		{"empty", "", ""},
		{"bare text", "no markup here", "no markup here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractText(tc.body); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{"<p>one two three</p>", 3},
		{"<p>hyphen-ated counts once</p>", 3},
		{"<p>--- ***</p>", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := CountWords(tc.body); got != tc.want {
			t.Errorf("CountWords(%q): expected %d, got %d", tc.body, tc.want, got)
		}
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("First one. Second one! Third?")
	if len(got) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %v", len(got), got)
	}
	if got[1] != "Second one" {
		t.Errorf("Expected %q, got %q", "Second one", got[1])
	}
}

func TestAverageSentenceLength(t *testing.T) {
	if got := AverageSentenceLength(""); got != 0 {
		t.Errorf("Expected 0 for empty text, got %f", got)
	}
	got := AverageSentenceLength("one two. three four.")
	if got != 2.0 {
		t.Errorf("Expected 2.0, got %f", got)
	}
}

func TestExtractAnchorIDs(t *testing.T) {
	body := `<p data-anchor-id="sc-1">first</p><div><span data-anchor-id="sc-2">second</span></div><p>plain</p>`
	ids, err := ExtractAnchorIDs(body)
	if err != nil {
		t.Fatalf("ExtractAnchorIDs returned error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"sc-1", "sc-2"}) {
		t.Errorf("Expected [sc-1 sc-2], got %v", ids)
	}
}

func TestSerializeOutline_Deterministic(t *testing.T) {
	outline := []model.Chapter{
		{ID: "ch1", Title: "One", Scenes: []model.Scene{{ID: "sc1", Title: "A"}, {ID: "sc2", Title: "B"}}},
	}
	a, err := SerializeOutline(outline)
	if err != nil {
		t.Fatalf("SerializeOutline returned error: %v", err)
	}
	b, err := SerializeOutline(outline)
	if err != nil {
		t.Fatalf("SerializeOutline returned error: %v", err)
	}
	if a != b {
		t.Errorf("Expected deterministic serialization")
	}

	empty, err := SerializeOutline(nil)
	if err != nil {
		t.Fatalf("SerializeOutline(nil) returned error: %v", err)
	}
	if empty != "[]\n" {
		t.Errorf("Expected empty array serialization, got %q", empty)
	}
}

func TestOutlineLines(t *testing.T) {
	outline := []model.Chapter{
		{ID: "ch1", Title: "One", Scenes: []model.Scene{{ID: "sc1", Title: "A"}}},
		{ID: "ch2", Title: "Two"},
	}
	lines := OutlineLines(outline)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %v", len(lines), lines)
	}
}
