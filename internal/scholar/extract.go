package scholar

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/matsen/homepage/internal/publication"
)

// Listing markup selectors.
const (
	SelectorRow       = ".gsc_a_tr"
	SelectorTitle     = ".gsc_a_at"
	SelectorGray      = ".gs_gray"
	SelectorYear      = ".gsc_a_y"
	SelectorCitations = ".gsc_a_c a"
)

// The listing gives each row two unlabelled gray lines. Their meaning is
// positional: authors first, venue second.
const (
	GrayFieldAuthors = 0
	GrayFieldVenue   = 1
)

// Placeholders for missing row fields.
const (
	DefaultTitle   = "Untitled"
	DefaultAuthors = ""
	DefaultVenue   = "Somewhere"
)

// ExtractPage returns one Publication per listing row in page order.
// Unparseable or empty HTML yields an empty slice.
func ExtractPage(html string) []publication.Publication {
	pubs := []publication.Publication{}
	if strings.TrimSpace(html) == "" {
		return pubs
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return pubs
	}

	doc.Find(SelectorRow).Each(func(_ int, row *goquery.Selection) {
		pubs = append(pubs, ExtractRow(row))
	})
	return pubs
}

// ExtractRow reads one listing row. Missing nodes fall back to placeholders;
// it never fails.
func ExtractRow(row *goquery.Selection) publication.Publication {
	titleLink := row.Find(SelectorTitle).First()

	title := titleLink.Text()
	if title == "" {
		title = row.Find("a").First().Text()
	}
	if title == "" {
		title = DefaultTitle
	}

	href, _ := titleLink.Attr("href")

	gray := row.Find(SelectorGray).Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})

	return publication.Publication{
		Title:   title,
		URL:     BaseURL + href,
		Authors: grayField(gray, GrayFieldAuthors, DefaultAuthors),
		Venue:   grayField(gray, GrayFieldVenue, DefaultVenue),
		Year:    parseCount(row.Find(SelectorYear).Text()),
		CitedBy: parseCount(row.Find(SelectorCitations).Text()),
	}
}

func grayField(fields []string, idx int, fallback string) string {
	if idx < len(fields) && fields[idx] != "" {
		return fields[idx]
	}
	return fallback
}

// parseCount converts listing text to an integer. Anything that is not a
// plain decimal number counts as zero.
func parseCount(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}
