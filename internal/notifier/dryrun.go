package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// DryRunNotifier prints notifications instead of sending them
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to out (stdout if nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints one line per new event
func (n *DryRunNotifier) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	for i, evt := range events {
		if _, err := fmt.Fprintf(n.out, "[%s %d/%d] %s: %s\n", activity, i+1, len(events), agenda.Label(evt.Date), evt.Title); err != nil {
			return err
		}
	}
	return nil
}
