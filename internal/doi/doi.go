// Package doi normalizes Digital Object Identifiers and finds them in text
// and PDF files.
package doi

import (
	"regexp"
	"strings"
)

// ResolverBase is prepended to bare DOIs to build a link.
const ResolverBase = "https://doi.org/"

// pattern matches 10.XXXX/suffix where XXXX is 4 to 9 digits.
var pattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// fieldPrefix matches a stray "doi =" left over from sloppy field values.
var fieldPrefix = regexp.MustCompile(`(?i)^\s*doi\s*=\s*`)

// Normalize removes resolver and scheme prefixes and lowercases the DOI so
// two spellings of the same identifier compare equal.
func Normalize(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = fieldPrefix.ReplaceAllString(doi, "")
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "https://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "http://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}

// URL returns a link for a DOI value. Values that are already full URLs are
// returned unchanged; anything else is normalized and put behind the resolver.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return ResolverBase + Normalize(raw)
}

// IsResolverURL reports whether the link points at the doi.org resolver.
func IsResolverURL(link string) bool {
	return strings.Contains(link, "doi.org")
}

// Find returns the first plausible DOI in text, or "".
func Find(text string) string {
	for _, match := range pattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValid(match) {
			return match
		}
	}
	return ""
}

// isValid performs basic shape validation on a DOI.
func isValid(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	if slashIdx == -1 || slashIdx >= len(doi)-1 {
		return false
	}
	return true
}
