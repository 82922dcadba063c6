package publication

import (
	"strings"
	"testing"
)

func titles(pubs []Publication) []string {
	out := make([]string, len(pubs))
	for i, p := range pubs {
		out[i] = p.Title
	}
	return out
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		pub  Publication
		want string
	}{
		{"title and year", Publication{Title: "Deep Nets", Year: 2020}, "Deep Nets2020"},
		{"unknown year", Publication{Title: "Deep Nets"}, "Deep Nets0"},
		{"empty title", Publication{Year: 1999}, "1999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pub.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_ConcatenationCollides(t *testing.T) {
	a := Publication{Title: "Paper 1", Year: 2020}
	b := Publication{Title: "Paper 120", Year: 20}
	if a.Key() != b.Key() {
		t.Fatalf("expected %q and %q to collide", a.Key(), b.Key())
	}

	got := Dedupe([]Publication{a, b})
	if len(got) != 1 || got[0].Title != "Paper 1" {
		t.Errorf("Dedupe() = %v, want only the first entry", titles(got))
	}
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	pubs := []Publication{
		{Title: "Alpha", Year: 2020, CitedBy: 5, Venue: "first"},
		{Title: "Beta", Year: 2021},
		{Title: "Alpha", Year: 2020, CitedBy: 99, Venue: "second"},
		{Title: "Alpha", Year: 2021},
	}

	got := Dedupe(pubs)

	if len(got) != 3 {
		t.Fatalf("Dedupe() returned %d entries, want 3", len(got))
	}
	if got[0].Venue != "first" || got[0].CitedBy != 5 {
		t.Errorf("Dedupe() kept %+v, want the first Alpha/2020", got[0])
	}
	want := []string{"Alpha", "Beta", "Alpha"}
	for i, title := range titles(got) {
		if title != want[i] {
			t.Errorf("Dedupe()[%d] = %q, want %q", i, title, want[i])
		}
	}
}

func TestDedupe_Empty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) = %v, want empty", got)
	}
}

func TestSortByTitleLength(t *testing.T) {
	pubs := []Publication{
		{Title: strings.Repeat("a", 10)},
		{Title: "bbb"},
		{Title: strings.Repeat("c", 7)},
	}

	SortByTitleLength(pubs)

	wantLens := []int{3, 7, 10}
	for i, p := range pubs {
		if len(p.Title) != wantLens[i] {
			t.Errorf("position %d has length %d, want %d", i, len(p.Title), wantLens[i])
		}
	}
}

func TestSortByTitleLength_Stable(t *testing.T) {
	pubs := []Publication{
		{Title: "ccc", Year: 1},
		{Title: "a"},
		{Title: "ddd", Year: 2},
		{Title: "eee", Year: 3},
	}

	SortByTitleLength(pubs)

	want := []string{"a", "ccc", "ddd", "eee"}
	for i, title := range titles(pubs) {
		if title != want[i] {
			t.Errorf("SortByTitleLength()[%d] = %q, want %q", i, title, want[i])
		}
	}
}

func TestSortByTitleLength_CountsCharacters(t *testing.T) {
	pubs := []Publication{
		{Title: "abcd"},
		{Title: "ééé"}, // 6 bytes, 3 characters
	}

	SortByTitleLength(pubs)

	if pubs[0].Title != "ééé" {
		t.Errorf("expected the 3-character title first, got %q", pubs[0].Title)
	}
}

func TestFinalize(t *testing.T) {
	raw := []Publication{
		{Title: "Longer title", Year: 2019},
		{Title: "Short", Year: 2020},
		{Title: "Longer title", Year: 2019, CitedBy: 3},
	}

	got := Finalize(raw)

	want := []string{"Short", "Longer title"}
	if len(got) != len(want) {
		t.Fatalf("Finalize() returned %v, want %v", titles(got), want)
	}
	for i, title := range titles(got) {
		if title != want[i] {
			t.Errorf("Finalize()[%d] = %q, want %q", i, title, want[i])
		}
	}
	if got[1].CitedBy != 0 {
		t.Errorf("Finalize() kept the duplicate instead of the first entry")
	}
}
