package notifier

import (
	"context"
	"errors"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// Notifier defines the interface for forwarding new events
type Notifier interface {
	// Notify forwards the new events found for an activity in one cycle.
	// Implementations do nothing when events is empty.
	Notify(ctx context.Context, activity string, events []agenda.Notification) error
}

// Multi sends every batch to all of its notifiers
type Multi []Notifier

// Notify implements Notifier. A failing channel does not stop the others.
func (m Multi) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, activity, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
