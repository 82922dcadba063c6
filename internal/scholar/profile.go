package scholar

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const (
	// BaseURL is the citation service host. Row links are relative to it.
	BaseURL = "https://scholar.google.com"

	// DefaultProfileID is scraped when no profile is given.
	DefaultProfileID = "VjJtYv4AAAAJ"

	listingPath = "/citations"
)

// ParseProfileID accepts a bare profile id or any URL fragment containing
// user=<id>. Whitespace is ignored; an empty argument gives DefaultProfileID.
func ParseProfileID(arg string) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, arg)

	if _, after, found := strings.Cut(id, "user="); found {
		id = after
		if i := strings.IndexAny(id, "&#"); i >= 0 {
			id = id[:i]
		}
	}

	if id == "" {
		return DefaultProfileID
	}
	return id
}

// ListingURL builds the listing page URL for a profile, starting at row
// cstart with pageSize rows.
func ListingURL(base, profileID string, cstart, pageSize int) string {
	if base == "" {
		base = BaseURL
	}
	return fmt.Sprintf("%s%s?user=%s&hl=en&oi=ao&cstart=%d&pagesize=%d",
		strings.TrimRight(base, "/"), listingPath, url.QueryEscape(profileID), cstart, pageSize)
}
