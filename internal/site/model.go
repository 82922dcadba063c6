// Package site loads homepage configuration and renders it into the
// container elements of an HTML page.
package site

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/homepage/internal/bibtex"
)

// Config is the normalized homepage configuration. Every field is optional;
// the renderer supplies placeholders for profile fields and empties lists.
type Config struct {
	Profile              Profile
	SocialLinks          []Link
	ResearchFocus        []FocusItem
	Spotlight            *Spotlight
	ProjectsSubtitle     string
	PublicationsSubtitle string
	News                 []NewsItem
	Projects             []Project
	Publications         []Publication
	Teaching             []TeachingItem
	Timeline             []TimelineItem
}

// Profile holds the person the page is about.
type Profile struct {
	Name         string
	Tagline      string
	Location     string
	About        string // Markdown; raw HTML is passed through
	Avatar       string
	Affiliations []string
	Email        string
}

// Link is a labelled hyperlink.
type Link struct {
	Label string `yaml:"label" json:"label" toml:"label"`
	URL   string `yaml:"url" json:"url" toml:"url"`
}

// FocusItem is one research-focus card.
type FocusItem struct {
	Title       string `yaml:"title" json:"title" toml:"title"`
	Description string `yaml:"description" json:"description" toml:"description"`
}

// Spotlight is the highlighted banner below the profile.
type Spotlight struct {
	Title       string `yaml:"title" json:"title" toml:"title"`
	Description string `yaml:"description" json:"description" toml:"description"`
}

// NewsItem is one dated news line.
type NewsItem struct {
	Date   Text   `yaml:"date" json:"date" toml:"date"`
	Detail string `yaml:"detail" json:"detail" toml:"detail"`
}

// Project is one project card.
type Project struct {
	Name    string `yaml:"name" json:"name" toml:"name"`
	Summary string `yaml:"summary" json:"summary" toml:"summary"`
	Links   []Link `yaml:"links" json:"links" toml:"links"`
}

// Publication is one entry of the publications list. DOI and URL are only
// consulted when Links is empty.
type Publication struct {
	Title   string   `yaml:"title" json:"title" toml:"title"`
	Authors []string `yaml:"authors" json:"authors" toml:"authors"`
	Venue   string   `yaml:"venue" json:"venue" toml:"venue"`
	Year    Text     `yaml:"year" json:"year" toml:"year"`
	Links   []Link   `yaml:"links" json:"links" toml:"links"`
	DOI     string   `yaml:"doi" json:"doi" toml:"doi"`
	URL     string   `yaml:"url" json:"url" toml:"url"`
	File    string   `yaml:"file" json:"file" toml:"file"`
}

// TeachingItem is one course taught.
type TeachingItem struct {
	Course      string `yaml:"course" json:"course" toml:"course"`
	Role        string `yaml:"role" json:"role" toml:"role"`
	Institution string `yaml:"institution" json:"institution" toml:"institution"`
	Year        Text   `yaml:"year" json:"year" toml:"year"`
}

// TimelineItem is one career-timeline entry.
type TimelineItem struct {
	Period       Text   `yaml:"period" json:"period" toml:"period"`
	Role         string `yaml:"role" json:"role" toml:"role"`
	Organization string `yaml:"organization" json:"organization" toml:"organization"`
}

// Text is a scalar that is rendered as written. Years and dates arrive as
// numbers, dates or strings depending on the document format.
type Text string

func (t Text) String() string { return string(t) }

// UnmarshalYAML keeps the scalar's source text.
func (t *Text) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	if n.Tag == "!!null" {
		*t = ""
		return nil
	}
	*t = Text(n.Value)
	return nil
}

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	if strings.TrimSpace(string(data)) == "null" {
		*t = ""
		return nil
	}
	return fmt.Errorf("expected a string or number, got %s", data)
}

// UnmarshalTOML accepts any scalar, including TOML dates.
func (t *Text) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*t = Text(v)
	case int64, float64, bool:
		*t = Text(fmt.Sprint(v))
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			*t = Text(v.Format(time.DateOnly))
		} else {
			*t = Text(v.Format(time.RFC3339))
		}
	case fmt.Stringer:
		*t = Text(v.String())
	default:
		return fmt.Errorf("expected a scalar, got %T", v)
	}
	return nil
}

// PublicationsFromEntries maps parsed bibliography entries to publications.
func PublicationsFromEntries(entries []bibtex.Entry) []Publication {
	pubs := make([]Publication, 0, len(entries))
	for _, e := range entries {
		links := make([]Link, 0, len(e.Links))
		for _, l := range e.Links {
			links = append(links, Link{Label: l.Label, URL: l.URL})
		}
		pubs = append(pubs, Publication{
			Title:   e.Title,
			Authors: e.Authors,
			Venue:   e.Venue,
			Year:    Text(e.Year),
			Links:   links,
			DOI:     e.DOI,
			URL:     e.URL,
			File:    e.File,
		})
	}
	return pubs
}

// fillLinks gives publications without explicit links a DOI or URL link.
func fillLinks(pubs []Publication) {
	for i := range pubs {
		if len(pubs[i].Links) > 0 {
			continue
		}
		for _, l := range bibtex.BuildLinks(pubs[i].DOI, pubs[i].URL) {
			pubs[i].Links = append(pubs[i].Links, Link{Label: l.Label, URL: l.URL})
		}
	}
}
