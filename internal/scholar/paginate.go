package scholar

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/matsen/homepage/internal/logging"
	"github.com/matsen/homepage/internal/publication"
)

// Paginator defaults.
const (
	DefaultStart    = 0
	DefaultPageSize = 100
	DefaultMaxPages = 18
	DefaultDelay    = 777 * time.Millisecond

	// graceFloor is the last page index whose emptiness does not end the scrape.
	graceFloor = 2
)

// Fetcher retrieves a page body. *Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Paginator walks the listing pages of one profile in order.
type Paginator struct {
	fetcher  Fetcher
	baseURL  string
	start    int
	pageSize int
	maxPages int
	limiter  *rate.Limiter
	log      logrus.FieldLogger
}

// PaginatorOption configures a Paginator.
type PaginatorOption func(*Paginator)

// WithStart sets the row offset of page 0.
func WithStart(n int) PaginatorOption {
	return func(p *Paginator) {
		p.start = n
	}
}

// WithPageSize sets rows requested per page.
func WithPageSize(n int) PaginatorOption {
	return func(p *Paginator) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithMaxPages sets the page index ceiling. Pages 0 through n are fetched
// at most.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		if n >= 0 {
			p.maxPages = n
		}
	}
}

// WithDelay sets the minimum pause between page fetches.
func WithDelay(d time.Duration) PaginatorOption {
	return func(p *Paginator) {
		p.limiter = newPageLimiter(d)
	}
}

// WithListingBase sets a custom listing host (for testing).
func WithListingBase(base string) PaginatorOption {
	return func(p *Paginator) {
		p.baseURL = base
	}
}

// WithPaginatorLogger sets the progress logger.
func WithPaginatorLogger(l logrus.FieldLogger) PaginatorOption {
	return func(p *Paginator) {
		p.log = logging.OrDiscard(l)
	}
}

// NewPaginator creates a paginator over f.
func NewPaginator(f Fetcher, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		fetcher:  f,
		baseURL:  BaseURL,
		start:    DefaultStart,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		limiter:  newPageLimiter(DefaultDelay),
		log:      logging.Discard(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func newPageLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Paginate fetches pages until the ceiling is passed or a page past the
// grace window yields no rows. Rows are returned in fetch order with
// duplicates kept. A failed fetch counts as an empty page; the only error
// returned is context cancellation, alongside the rows gathered so far.
func (p *Paginator) Paginate(ctx context.Context, profileID string) ([]publication.Publication, error) {
	pubs := []publication.Publication{}

	for page := 0; page <= p.maxPages; page++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return pubs, err
		}

		cstart := p.start + page*p.pageSize
		url := ListingURL(p.baseURL, profileID, cstart, p.pageSize)

		body, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return pubs, ctx.Err()
			}
			p.log.WithFields(logrus.Fields{
				"page":         page,
				"error":        err,
				"rate_limited": IsRateLimited(err),
			}).Warn("listing page fetch failed; treating as empty")
		}

		rows := ExtractPage(body)
		pubs = append(pubs, rows...)
		p.log.WithFields(logrus.Fields{
			"page":   page,
			"cstart": cstart,
			"rows":   len(rows),
		}).Debug("listing page processed")

		if len(rows) == 0 && page > graceFloor {
			break
		}
	}

	return pubs, nil
}
