package scholar

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullRow = `<tr class="gsc_a_tr">
  <td class="gsc_a_t">
    <a href="/citations?view_op=view_citation&amp;citation_for_view=abc:xyz" class="gsc_a_at">Fast phylogenetics</a>
    <div class="gs_gray">A Smith, B Jones</div>
    <div class="gs_gray">Nature 12 (3), 4-5, 2020</div>
  </td>
  <td class="gsc_a_c"><a href="#" class="gsc_a_ac gs_ibl">57</a></td>
  <td class="gsc_a_y"><span class="gsc_a_h gsc_a_hc gs_ibl">2020</span></td>
</tr>`

const noCitationRow = `<tr class="gsc_a_tr">
  <td class="gsc_a_t">
    <a href="/citations?x=1" class="gsc_a_at">Uncited work</a>
    <div class="gs_gray">C Lee</div>
    <div class="gs_gray">bioRxiv</div>
  </td>
  <td class="gsc_a_y"><span class="gsc_a_h">2023</span></td>
</tr>`

const bareLinkRow = `<tr class="gsc_a_tr"><td><a href="/elsewhere">Plain link title</a></td></tr>`

const emptyRow = `<tr class="gsc_a_tr"><td></td></tr>`

func table(rows ...string) string {
	return "<html><body><table><tbody id=\"gsc_a_b\">" + strings.Join(rows, "\n") + "</tbody></table></body></html>"
}

func TestExtractPage_FullRow(t *testing.T) {
	pubs := ExtractPage(table(fullRow))
	require.Len(t, pubs, 1)

	p := pubs[0]
	assert.Equal(t, "Fast phylogenetics", p.Title)
	assert.Equal(t, "https://scholar.google.com/citations?view_op=view_citation&citation_for_view=abc:xyz", p.URL)
	assert.Equal(t, "A Smith, B Jones", p.Authors)
	assert.Equal(t, "Nature 12 (3), 4-5, 2020", p.Venue)
	assert.Equal(t, 2020, p.Year)
	assert.Equal(t, 57, p.CitedBy)
}

func TestExtractPage_MissingCitationMarker(t *testing.T) {
	pubs := ExtractPage(table(noCitationRow))
	require.Len(t, pubs, 1)

	assert.Equal(t, 0, pubs[0].CitedBy)
	assert.Equal(t, 2023, pubs[0].Year)
}

func TestExtractPage_Fallbacks(t *testing.T) {
	pubs := ExtractPage(table(bareLinkRow, emptyRow))
	require.Len(t, pubs, 2)

	bare := pubs[0]
	assert.Equal(t, "Plain link title", bare.Title)
	assert.Equal(t, BaseURL, bare.URL, "title link without class gives the host prefix only")
	assert.Equal(t, DefaultAuthors, bare.Authors)
	assert.Equal(t, DefaultVenue, bare.Venue)

	empty := pubs[1]
	assert.Equal(t, DefaultTitle, empty.Title)
	assert.Equal(t, 0, empty.Year)
	assert.Equal(t, 0, empty.CitedBy)
}

func TestExtractPage_OrderPreserved(t *testing.T) {
	pubs := ExtractPage(table(fullRow, noCitationRow, bareLinkRow))
	require.Len(t, pubs, 3)

	assert.Equal(t, "Fast phylogenetics", pubs[0].Title)
	assert.Equal(t, "Uncited work", pubs[1].Title)
	assert.Equal(t, "Plain link title", pubs[2].Title)
}

func TestExtractPage_NoRows(t *testing.T) {
	for _, html := range []string{"", "   ", "<html><body>blocked</body></html>", "<<<not html"} {
		pubs := ExtractPage(html)
		assert.NotNil(t, pubs)
		assert.Empty(t, pubs, "input %q", html)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2020", 2020},
		{" 57 ", 57},
		{"", 0},
		{"0", 0},
		{"2020*", 0},
		{"1+1", 0},
		{"process.exit(1)", 0},
		{"12.5", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, parseCount(tt.in))
		})
	}
}
