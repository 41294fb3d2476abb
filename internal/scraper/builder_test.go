package scraper

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

type fakeFetcher struct {
	calls  []time.Month
	failAt time.Month
}

func (f *fakeFetcher) FetchRows(ctx context.Context, activity string, year int, month time.Month) ([]agenda.Row, error) {
	f.calls = append(f.calls, month)
	if month == f.failAt {
		return nil, ErrFetchFailure
	}
	return []agenda.Row{{Date: fmt.Sprintf("%s %d", month, year), Titles: []string{activity}}}, nil
}

func TestBuild(t *testing.T) {
	f := &fakeFetcher{}
	b := NewBuilder(f)

	rows, err := b.Build(context.Background(), "ski", 2026, time.October)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	wantCalls := []time.Month{time.October, time.November, time.December}
	if !reflect.DeepEqual(f.calls, wantCalls) {
		t.Errorf("fetched months = %v, want %v", f.calls, wantCalls)
	}

	wantDates := []string{"October 2026", "November 2026", "December 2026"}
	if len(rows) != len(wantDates) {
		t.Fatalf("Build() returned %d rows, want %d", len(rows), len(wantDates))
	}
	for i, row := range rows {
		if row.Date != wantDates[i] {
			t.Errorf("row %d date = %q, want %q", i, row.Date, wantDates[i])
		}
	}
}

func TestBuild_AbortsOnFailure(t *testing.T) {
	f := &fakeFetcher{failAt: time.November}
	b := NewBuilder(f)

	rows, err := b.Build(context.Background(), "ski", 2026, time.October)
	if !errors.Is(err, ErrFetchFailure) {
		t.Errorf("Build() error = %v, want ErrFetchFailure", err)
	}
	if rows != nil {
		t.Errorf("Build() rows = %+v, want nil", rows)
	}
	if len(f.calls) != 2 {
		t.Errorf("fetched %d months, want 2 (stop after failure)", len(f.calls))
	}
}

func TestBuild_Cancelled(t *testing.T) {
	f := &fakeFetcher{}
	b := NewBuilder(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Build(ctx, "ski", 2026, time.January); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("fetched %d months after cancellation, want 0", len(f.calls))
	}
}
