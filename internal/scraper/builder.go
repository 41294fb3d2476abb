package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// RowFetcher returns the agenda rows of one activity for one month
type RowFetcher interface {
	FetchRows(ctx context.Context, activity string, year int, month time.Month) ([]agenda.Row, error)
}

// Builder assembles the scrape of one poll cycle
type Builder struct {
	fetcher RowFetcher
}

// NewBuilder creates a Builder on top of a RowFetcher
func NewBuilder(fetcher RowFetcher) *Builder {
	return &Builder{fetcher: fetcher}
}

// Build fetches every month from the given one through December of year and
// concatenates their rows in page order. The first failure aborts the build.
func (b *Builder) Build(ctx context.Context, activity string, year int, from time.Month) ([]agenda.Row, error) {
	rows := make([]agenda.Row, 0)

	for m := from; m <= time.December; m++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		monthRows, err := b.fetcher.FetchRows(ctx, activity, year, m)
		if err != nil {
			return nil, fmt.Errorf("fetching %s %d-%02d: %w", activity, year, int(m), err)
		}

		rows = append(rows, monthRows...)
	}

	return rows, nil
}
