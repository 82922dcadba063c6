// Package bibtex reads free-text BibTeX bibliographies into loosely typed
// entries. Parsing is best effort: fields are found by pattern search, missing
// fields are empty strings, and no entry is rejected.
package bibtex

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/homepage/internal/doi"
)

// Link labels produced by Entry.Links.
const (
	LabelDOI  = "DOI"
	LabelLink = "Link"
)

// Entry is one bibliography record.
type Entry struct {
	Type    string   `json:"type"` // article, inproceedings, ... (lowercased)
	Key     string   `json:"key"`  // Citation key
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    string   `json:"year"`  // Kept as text; "" when absent
	Venue   string   `json:"venue"` // journal, falling back to booktitle
	DOI     string   `json:"doi,omitempty"`
	URL     string   `json:"url,omitempty"`
	File    string   `json:"file,omitempty"` // Local PDF path, if given
	Links   []Link   `json:"links"`
}

// Link is a labelled hyperlink attached to an entry.
type Link struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

var (
	whitespace     = regexp.MustCompile(`\s+`)
	authorSplitter = regexp.MustCompile(`(?i)\s+and\s+`)
	braceStripper  = strings.NewReplacer("{", "", "}", "")
)

// knownFields are compiled once; other names are compiled on demand.
var knownFields = map[string][]*regexp.Regexp{}

func init() {
	for _, name := range []string{"title", "author", "year", "journal", "booktitle", "url", "doi", "file"} {
		knownFields[name] = compileField(name)
	}
}

// compileField builds the search patterns for a field name, in the order
// they are tried: braced (one level of nesting), quoted, then bare values.
// The leading word boundary keeps "title" from matching inside "booktitle".
func compileField(name string) []*regexp.Regexp {
	key := `(?i)\b` + regexp.QuoteMeta(name) + `\s*=\s*`
	return []*regexp.Regexp{
		regexp.MustCompile(key + `\{((?:[^{}]|\{[^{}]*\})*)\}`),
		regexp.MustCompile(key + `"([^"]*)"`),
		regexp.MustCompile(key + `([^,\n]+)`),
	}
}

// Field searches an entry body for name = value and returns the cleaned
// value, or "" when the field is absent.
func Field(body, name string) string {
	if body == "" {
		return ""
	}
	patterns, ok := knownFields[strings.ToLower(name)]
	if !ok {
		patterns = compileField(name)
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return cleanValue(m[1])
		}
	}
	return ""
}

// cleanValue drops protective braces and collapses whitespace.
func cleanValue(v string) string {
	v = braceStripper.Replace(v)
	return strings.TrimSpace(whitespace.ReplaceAllString(v, " "))
}

// Parse splits a bibliography on entry markers and extracts each entry.
func Parse(text string) []Entry {
	entries := []Entry{}
	if text == "" {
		return entries
	}

	for _, chunk := range strings.Split(text, "@") {
		if len(strings.TrimSpace(chunk)) < 3 {
			continue
		}
		entry, ok := parseChunk(chunk)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// parseChunk parses the text following one '@' marker.
func parseChunk(chunk string) (Entry, bool) {
	open := strings.Index(chunk, "{")
	if open == -1 {
		return Entry{}, false
	}

	afterBrace := chunk[open+1:]
	var key, fields string
	if comma := strings.Index(afterBrace, ","); comma >= 0 {
		key = afterBrace[:comma]
		fields = afterBrace[comma+1:]
	} else {
		fields = afterBrace
	}
	if closeIdx := strings.LastIndex(fields, "}"); closeIdx >= 0 {
		fields = fields[:closeIdx]
	}

	e := Entry{
		Type:  strings.ToLower(strings.TrimSpace(chunk[:open])),
		Key:   strings.TrimSpace(key),
		Title: Field(fields, "title"),
		Year:  Field(fields, "year"),
		DOI:   Field(fields, "doi"),
		URL:   Field(fields, "url"),
		File:  Field(fields, "file"),
	}
	e.Authors = SplitAuthors(Field(fields, "author"))
	e.Venue = Field(fields, "journal")
	if e.Venue == "" {
		e.Venue = Field(fields, "booktitle")
	}
	e.Links = BuildLinks(e.DOI, e.URL)

	return e, true
}

// SplitAuthors splits a BibTeX author list on "and".
func SplitAuthors(field string) []string {
	authors := []string{}
	if strings.TrimSpace(field) == "" {
		return authors
	}
	for _, a := range authorSplitter.Split(field, -1) {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// BuildLinks returns the link list for an entry. A DOI is preferred over a
// generic URL; bare DOIs point at the doi.org resolver.
func BuildLinks(rawDOI, rawURL string) []Link {
	if rawDOI != "" {
		return []Link{{Label: LabelDOI, URL: doi.URL(rawDOI)}}
	}
	if rawURL != "" {
		label := LabelLink
		if doi.IsResolverURL(rawURL) {
			label = LabelDOI
		}
		return []Link{{Label: label, URL: doi.URL(rawURL)}}
	}
	return []Link{}
}

// ParseFile reads and parses a .bib file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return Parse(string(data)), nil
}
