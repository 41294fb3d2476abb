package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/logger"
	"github.com/pfrederiksen/clubot/internal/metrics"
	"github.com/pfrederiksen/clubot/internal/notifier"
	"github.com/pfrederiksen/clubot/internal/storage"
)

// RowBuilder produces the agenda rows of an activity from a starting month
// to the end of the year
type RowBuilder interface {
	Build(ctx context.Context, activity string, year int, from time.Month) ([]agenda.Row, error)
}

// Renderer writes the viewer page of an activity
type Renderer interface {
	Render(activity string, store *agenda.Store, latest string) (string, error)
}

// Outcome is the result of one activity within a cycle
type Outcome struct {
	Activity string
	Result   *agenda.Result
	Err      error
}

// Poller reconciles activities against their stored history
type Poller struct {
	activities []string
	builder    RowBuilder
	storage    storage.Backend
	notifier   notifier.Notifier
	retention  agenda.RetentionPolicy
	renderer   Renderer
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Poller
type Option func(*Poller)

// WithRetention sets the retention policy applied after each reconciliation
func WithRetention(policy agenda.RetentionPolicy) Option {
	return func(p *Poller) { p.retention = policy }
}

// WithRenderer renders the viewer page after each save
func WithRenderer(r Renderer) Option {
	return func(p *Poller) { p.renderer = r }
}

// WithMetrics records cycle metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New creates a poller for activities
func New(activities []string, builder RowBuilder, backend storage.Backend, n notifier.Notifier, opts ...Option) *Poller {
	p := &Poller{
		activities: activities,
		builder:    builder,
		storage:    backend,
		notifier:   n,
		retention:  agenda.KeepAll{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Activities returns the watched activities
func (p *Poller) Activities() []string {
	return p.activities
}

// RunCycle processes every activity in order. A failing activity does not
// stop the others; the returned error joins all failures.
func (p *Poller) RunCycle(ctx context.Context) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(p.activities))
	var errs []error

	for _, activity := range p.activities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := p.ProcessActivity(ctx, activity)
		if err != nil {
			logger.Error("Activity cycle failed", logger.Fields{"activity": activity}, err)
			errs = append(errs, fmt.Errorf("%s: %w", activity, err))
		}
		outcomes = append(outcomes, Outcome{Activity: activity, Result: result, Err: err})
	}

	return outcomes, errors.Join(errs...)
}

// ProcessActivity runs one cycle for activity. When loading or fetching
// fails the stored history is left untouched. A notification failure is
// returned after the history has been saved.
func (p *Poller) ProcessActivity(ctx context.Context, activity string) (result *agenda.Result, err error) {
	start := p.now()
	defer func() {
		p.metrics.ObserveCycle(activity, p.now().Sub(start), err)
	}()

	store, err := p.storage.Load(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	rows, err := p.builder.Build(ctx, activity, start.Year(), start.Month())
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}

	timestamp := agenda.Timestamp(start)
	result = agenda.Reconcile(store, rows, timestamp)
	p.logResult(activity, result)

	if archived := p.retention.Apply(store, start); archived != nil {
		if err := p.storage.AppendArchive(ctx, activity, archived); err != nil {
			return nil, fmt.Errorf("archiving records: %w", err)
		}
		total, _ := archived.Count()
		logger.Info("Archived deleted records", logger.Fields{"activity": activity, "count": total})
	}

	if err := p.storage.Save(ctx, activity, store); err != nil {
		return nil, fmt.Errorf("saving history: %w", err)
	}

	total, live := store.Count()
	p.metrics.ObserveChanges(activity, len(result.Notifications), len(result.Suppressions), total, live)

	if p.renderer != nil {
		if path, err := p.renderer.Render(activity, store, timestamp); err != nil {
			logger.Warn("Failed to render history page", logger.Fields{"activity": activity, "error": err.Error()})
		} else {
			logger.Debug("Rendered history page", logger.Fields{"activity": activity, "path": path})
		}
	}

	if err := p.notifier.Notify(ctx, activity, result.Notifications); err != nil {
		return result, fmt.Errorf("notifying: %w", err)
	}

	return result, nil
}

func (p *Poller) logResult(activity string, result *agenda.Result) {
	for _, n := range result.Notifications {
		logger.Info("New event", logger.Fields{"activity": activity, "date": n.Date, "title": n.Title})
	}
	for _, s := range result.Suppressions {
		fields := logger.Fields{"activity": activity, "date": s.Date, "title": s.Title}
		if s.WholeDate {
			logger.Warn("Date emptied, event marked deleted", fields)
		} else {
			logger.Warn("Event vanished, marked deleted", fields)
		}
	}
	logger.Debug("Reconciled", logger.Fields{
		"activity":   activity,
		"new":        len(result.Notifications),
		"suppressed": len(result.Suppressions),
	})
}
