// Package publication defines the scraped publication record and the
// dedupe/order/report steps applied to a finished scrape.
package publication

import (
	"sort"
	"strconv"
	"unicode/utf8"
)

// Publication is one row of a citation-profile listing.
type Publication struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Authors string `json:"authors"` // Comma-separated, as displayed by the listing
	Venue   string `json:"venue"`
	Year    int    `json:"year"`    // 0 if unknown
	CitedBy int    `json:"citedBy"` // 0 if unknown
}

// Key returns the dedupe key: the title followed by the decimal year.
//
// This is plain concatenation, so "Paper 1" from 2020 and "Paper 120" from 20
// share a key. Callers rely on that exact behavior.
func (p Publication) Key() string {
	return p.Title + strconv.Itoa(p.Year)
}

// Dedupe returns the publications with later key collisions removed.
// The first occurrence of each key wins; input order is otherwise preserved.
func Dedupe(pubs []Publication) []Publication {
	seen := make(map[string]bool, len(pubs))
	kept := make([]Publication, 0, len(pubs))
	for _, p := range pubs {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, p)
	}
	return kept
}

// SortByTitleLength orders publications by ascending title length in
// characters. Titles of equal length keep their relative order.
func SortByTitleLength(pubs []Publication) {
	sort.SliceStable(pubs, func(i, j int) bool {
		return utf8.RuneCountInString(pubs[i].Title) < utf8.RuneCountInString(pubs[j].Title)
	})
}

// Finalize dedupes a raw scrape result and sorts it for output.
func Finalize(raw []Publication) []Publication {
	pubs := Dedupe(raw)
	SortByTitleLength(pubs)
	return pubs
}
