package notifier

import (
	"context"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/filter"
)

// Filtered forwards only the events matching a title filter
type Filtered struct {
	next   Notifier
	filter *filter.Filter
}

// NewFiltered wraps next with f
func NewFiltered(next Notifier, f *filter.Filter) *Filtered {
	return &Filtered{next: next, filter: f}
}

// Notify implements Notifier
func (n *Filtered) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	events = n.filter.Apply(events)
	if len(events) == 0 {
		return nil
	}
	return n.next.Notify(ctx, activity, events)
}
