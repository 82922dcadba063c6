package site

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var renderTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func parseDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func defaultDoc(t *testing.T) *goquery.Document {
	return parseDoc(t, string(DefaultTemplate()))
}

func fullConfig() *Config {
	return &Config{
		Profile: Profile{
			Name:         "Ada Lovelace",
			Tagline:      "Computing pioneer",
			Location:     "London",
			About:        "Writes **notes** on engines.",
			Avatar:       "images/ada.jpg",
			Affiliations: []string{"Analytical Society", "Royal Institution"},
			Email:        "ada@example.org",
		},
		SocialLinks:   []Link{{Label: "GitHub", URL: "https://github.com/ada"}, {URL: "https://ada.example"}},
		ResearchFocus: []FocusItem{{Title: "Engines", Description: "Mechanical computation"}, {Description: "untitled"}},
		Spotlight:     &Spotlight{Title: "New book", Description: "Out now"},
		News:          []NewsItem{{Date: "2024-05-01", Detail: "Paper accepted"}},
		Projects: []Project{
			{Name: "Engine", Summary: "Difference engine", Links: []Link{{Label: "Code", URL: "https://example.org/code"}}},
			{Summary: "No name"},
		},
		Publications: []Publication{
			{Title: "Notes", Authors: []string{"A. Lovelace", "C. Babbage"}, Venue: "Taylor's Memoirs", Year: "1843",
				Links: []Link{{Label: "DOI", URL: "https://doi.org/10.1000/notes"}}},
			{Authors: []string{}},
		},
		Teaching: []TeachingItem{{Course: "Mathematics", Role: "Tutor", Institution: "Home", Year: "1840"}},
		Timeline: []TimelineItem{{Period: "1833-1843", Role: "Collaborator", Organization: "Babbage lab"}},
	}
}

func TestRender_Profile(t *testing.T) {
	doc := defaultDoc(t)
	Render(doc, fullConfig(), renderTime)

	assert.Equal(t, "Ada Lovelace", doc.Find("#profile-name").Text())
	assert.Equal(t, "Computing pioneer", doc.Find("#profile-tagline").Text())
	assert.Equal(t, "London", doc.Find("#profile-location").Text())
	assert.Equal(t, "notes", doc.Find("#profile-about strong").Text(), "about is rendered as Markdown")

	avatar := doc.Find("#profile-avatar")
	assert.Equal(t, "images/ada.jpg", avatar.AttrOr("src", ""))
	assert.Equal(t, "Portrait of Ada Lovelace", avatar.AttrOr("alt", ""))

	assert.Equal(t, 2, doc.Find("#profile-affiliations span").Length())
	assert.Equal(t, "mailto:ada@example.org", doc.Find("#profile-email").AttrOr("href", ""))
	assert.Equal(t, "ada@example.org", doc.Find("#profile-email").Text())

	pills := doc.Find("#social-links a.pill")
	require.Equal(t, 2, pills.Length())
	assert.Equal(t, "GitHub", pills.Eq(0).Text())
	assert.Equal(t, "https://ada.example", pills.Eq(1).Text(), "label falls back to the URL")
	assert.Equal(t, "noopener noreferrer", pills.Eq(0).AttrOr("rel", ""))
	assert.Equal(t, "2026", doc.Find("#footer-year").Text())
}

func TestRender_Sections(t *testing.T) {
	doc := defaultDoc(t)
	Render(doc, fullConfig(), renderTime)

	cards := doc.Find("#research-focus-list article.card h3")
	require.Equal(t, 2, cards.Length())
	assert.Equal(t, PlaceholderFocusTitle, cards.Eq(1).Text())

	assert.Equal(t, "New book", doc.Find("#spotlight h2").Text())
	assert.Equal(t, "2024-05-01", doc.Find("#news-list .timeline-date").Text())

	assert.Equal(t, PlaceholderProjectsSubtitle, doc.Find("#projects .section-subtitle").Text())
	projects := doc.Find("#projects-list article.card")
	require.Equal(t, 2, projects.Length())
	assert.Equal(t, "Code", projects.Eq(0).Find("a.pill").Text())
	assert.Equal(t, PlaceholderProject, projects.Eq(1).Find("h3").Text())

	assert.Equal(t, PlaceholderPublicationsSubtitle, doc.Find("#publications .section-subtitle").Text())
	pubs := doc.Find("#publications-list article.stack-item")
	require.Equal(t, 2, pubs.Length())
	assert.Equal(t, "A. Lovelace, C. Babbage", pubs.Eq(0).Find("p.muted").Text())
	assert.Equal(t, "Taylor's Memoirs · 1843", pubs.Eq(0).Find("p").Eq(1).Text())
	assert.Equal(t, "https://doi.org/10.1000/notes", pubs.Eq(0).Find("a.pill").AttrOr("href", ""))
	assert.Equal(t, PlaceholderPublication, pubs.Eq(1).Find("h3").Text())
	assert.Equal(t, PlaceholderVenue+" · ", pubs.Eq(1).Find("p").Eq(1).Text())

	assert.Equal(t, "Tutor · Home · 1840", doc.Find("#teaching-list p.muted").Text())
	assert.Equal(t, "Babbage lab", doc.Find("#timeline-list span.muted").Text())
}

const staleTemplate = `<html><body><main>
<h1 id="profile-name">stale</h1>
<p id="profile-tagline">stale</p>
<img id="profile-avatar" src="keep.png" alt="keep">
<div id="profile-affiliations"><span>stale</span></div>
<a id="profile-email" href="mailto:old@example.org">old@example.org</a>
<nav id="social-links"><a>stale</a></nav>
<div id="research-focus-list">stale</div>
<section id="spotlight">stale</section>
<div id="news-list">stale</div>
<section id="projects"><p class="section-subtitle">stale</p><div id="projects-list">stale</div></section>
<section id="publications"><p class="section-subtitle">stale</p><div id="publications-list">stale</div></section>
<div id="teaching-list">stale</div>
<div id="timeline-list">stale</div>
</main></body></html>`

func TestRender_AbsentSectionsClear(t *testing.T) {
	doc := parseDoc(t, staleTemplate)
	Render(doc, &Config{}, renderTime)

	for _, id := range []string{
		"#social-links", "#research-focus-list", "#spotlight", "#news-list",
		"#projects-list", "#publications-list", "#teaching-list", "#timeline-list",
		"#profile-affiliations", "#profile-tagline",
	} {
		assert.Empty(t, doc.Find(id).Children().Length(), "%s children", id)
		assert.Empty(t, strings.TrimSpace(doc.Find(id).Text()), "%s text", id)
	}

	assert.Equal(t, PlaceholderName, doc.Find("#profile-name").Text())
	assert.Equal(t, PlaceholderEmail, doc.Find("#profile-email").Text())
	assert.Equal(t, "mailto:"+PlaceholderEmail, doc.Find("#profile-email").AttrOr("href", ""))
	assert.Equal(t, "keep.png", doc.Find("#profile-avatar").AttrOr("src", ""), "avatar placeholder is left alone")
	assert.Equal(t, PlaceholderProjectsSubtitle, doc.Find("#projects .section-subtitle").Text())
	assert.Equal(t, PlaceholderPublicationsSubtitle, doc.Find("#publications .section-subtitle").Text())
}

func TestRender_EscapesText(t *testing.T) {
	doc := defaultDoc(t)
	cfg := &Config{
		Profile:     Profile{Name: `<script>alert(1)</script>`},
		News:        []NewsItem{{Detail: `<b>bold?</b>`}},
		SocialLinks: []Link{{Label: "x", URL: `javascript:"><img src=x>`}},
	}
	Render(doc, cfg, renderTime)

	assert.Equal(t, `<script>alert(1)</script>`, doc.Find("#profile-name").Text())
	assert.Equal(t, 0, doc.Find("#profile-name script").Length())
	assert.Equal(t, 0, doc.Find("#news-list b").Length())
	assert.Equal(t, 0, doc.Find("#social-links img").Length())
}

func TestRenderError_SingleMessage(t *testing.T) {
	doc := defaultDoc(t)
	RenderError(doc)

	assert.Equal(t, 1, doc.Find(".load-error").Length())
	assert.Equal(t, LoadErrorMessage, doc.Find("#content .load-error").Text())
	assert.Equal(t, 0, doc.Find("#publications-list").Length(), "main content is replaced")
}

func TestRenderError_RegionFallback(t *testing.T) {
	withMain := parseDoc(t, `<html><body><header>keep</header><main><p>old</p></main></body></html>`)
	RenderError(withMain)
	assert.Equal(t, 1, withMain.Find("main .load-error").Length())
	assert.Equal(t, "keep", withMain.Find("header").Text())

	bare := parseDoc(t, `<html><body><p>old</p></body></html>`)
	RenderError(bare)
	assert.Equal(t, 1, bare.Find("body > .load-error").Length())
	assert.Equal(t, 1, bare.Find("body p").Length())
}
