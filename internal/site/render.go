package site

import (
	"bytes"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Placeholders used when configuration leaves a field empty.
const (
	PlaceholderName                 = "Unnamed person"
	PlaceholderEmail                = "info@example.com"
	PlaceholderPortraitOf           = "someone"
	PlaceholderFocusTitle           = "Untitled"
	PlaceholderProject              = "Mystery Project"
	PlaceholderPublication          = "Untitled Manuscript"
	PlaceholderVenue                = "Preprint"
	PlaceholderProjectsSubtitle     = "Selected projects"
	PlaceholderPublicationsSubtitle = "Selected publications"
)

// LoadErrorMessage is the only text shown when configuration cannot be loaded.
const LoadErrorMessage = "Sorry, this page could not be loaded. Please try again later."

// The about field is Markdown; raw HTML inside it is kept.
var markdown = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))

// Render writes cfg into the container elements of doc. Lists absent from
// cfg empty their container; profile fields fall back to placeholders.
func Render(doc *goquery.Document, cfg *Config, now time.Time) {
	renderProfile(doc, cfg.Profile)

	setHTML(doc, "#social-links", join(cfg.SocialLinks, func(l Link) string {
		return pill(l.URL, firstNonEmpty(l.Label, l.URL, "link"))
	}))

	setHTML(doc, "#research-focus-list", join(cfg.ResearchFocus, func(f FocusItem) string {
		return `<article class="card"><h3>` + esc(firstNonEmpty(f.Title, PlaceholderFocusTitle)) +
			`</h3><p>` + esc(f.Description) + `</p></article>`
	}))

	spotlight := ""
	if cfg.Spotlight != nil {
		spotlight = `<h2>` + esc(cfg.Spotlight.Title) + `</h2><p>` + esc(cfg.Spotlight.Description) + `</p>`
	}
	setHTML(doc, "#spotlight", spotlight)

	setHTML(doc, "#news-list", join(cfg.News, func(n NewsItem) string {
		return `<div class="timeline-entry"><span class="timeline-date">` + esc(n.Date.String()) +
			`</span><p>` + esc(n.Detail) + `</p></div>`
	}))

	doc.Find("#projects .section-subtitle").SetText(firstNonEmpty(cfg.ProjectsSubtitle, PlaceholderProjectsSubtitle))
	setHTML(doc, "#projects-list", join(cfg.Projects, func(p Project) string {
		return `<article class="card"><h3>` + esc(firstNonEmpty(p.Name, PlaceholderProject)) +
			`</h3><p>` + esc(p.Summary) + `</p><div class="pill-group">` +
			join(p.Links, func(l Link) string { return pill(l.URL, firstNonEmpty(l.Label, "link")) }) +
			`</div></article>`
	}))

	doc.Find("#publications .section-subtitle").SetText(firstNonEmpty(cfg.PublicationsSubtitle, PlaceholderPublicationsSubtitle))
	setHTML(doc, "#publications-list", join(cfg.Publications, renderPublication))

	setHTML(doc, "#teaching-list", join(cfg.Teaching, func(t TeachingItem) string {
		return `<article class="stack-item"><h3>` + esc(t.Course) + `</h3><p class="muted">` +
			esc(t.Role) + ` &middot; ` + esc(t.Institution) + ` &middot; ` + esc(t.Year.String()) +
			`</p></article>`
	}))

	setHTML(doc, "#timeline-list", join(cfg.Timeline, func(t TimelineItem) string {
		return `<div class="timeline-entry"><span class="timeline-date">` + esc(t.Period.String()) +
			`</span><p>` + esc(t.Role) + `<br><span class="muted">` + esc(t.Organization) +
			`</span></p></div>`
	}))

	doc.Find("#footer-year").SetText(strconv.Itoa(now.Year()))
}

func renderProfile(doc *goquery.Document, p Profile) {
	doc.Find("#profile-name").SetText(firstNonEmpty(p.Name, PlaceholderName))
	doc.Find("#profile-tagline").SetText(p.Tagline)
	doc.Find("#profile-location").SetText(p.Location)
	setHTML(doc, "#profile-about", renderMarkdown(p.About))

	if p.Avatar != "" {
		doc.Find("#profile-avatar").
			SetAttr("src", p.Avatar).
			SetAttr("alt", "Portrait of "+firstNonEmpty(p.Name, PlaceholderPortraitOf))
	}

	setHTML(doc, "#profile-affiliations", join(p.Affiliations, func(a string) string {
		return `<span>` + esc(a) + `</span>`
	}))

	email := firstNonEmpty(p.Email, PlaceholderEmail)
	doc.Find("#profile-email").SetAttr("href", "mailto:"+email).SetText(email)
}

func renderPublication(p Publication) string {
	return `<article class="stack-item"><h3>` + esc(firstNonEmpty(p.Title, PlaceholderPublication)) +
		`</h3><p class="muted">` + esc(strings.Join(p.Authors, ", ")) +
		`</p><p>` + esc(firstNonEmpty(p.Venue, PlaceholderVenue)) + ` &middot; ` + esc(p.Year.String()) +
		`</p><div class="pill-group">` +
		join(p.Links, func(l Link) string { return pill(l.URL, firstNonEmpty(l.Label, "Link")) }) +
		`</div></article>`
}

// RenderError replaces the main content region with a single error message.
// The region is #content, else main, else body.
func RenderError(doc *goquery.Document) {
	msg := `<p class="load-error">` + esc(LoadErrorMessage) + `</p>`
	for _, sel := range []string{"#content", "main", "body"} {
		if region := doc.Find(sel).First(); region.Length() > 0 {
			region.SetHtml(msg)
			return
		}
	}
}

func renderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return `<p>` + esc(src) + `</p>`
	}
	return buf.String()
}

func pill(href, label string) string {
	return `<a class="pill" href="` + esc(firstNonEmpty(href, "#")) +
		`" target="_blank" rel="noopener noreferrer">` + esc(label) + `</a>`
}

func setHTML(doc *goquery.Document, selector, fragment string) {
	doc.Find(selector).SetHtml(fragment)
}

func join[T any](items []T, build func(T) string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(build(item))
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func esc(s string) string { return html.EscapeString(s) }
