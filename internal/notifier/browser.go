package notifier

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// BrowserNotifier opens the rendered history page of an activity
type BrowserNotifier struct {
	pagePath func(activity string) string
	open     func(target string) error
}

// NewBrowserNotifier creates a browser notifier. pagePath maps an activity to
// the file rendered for it.
func NewBrowserNotifier(pagePath func(activity string) string) *BrowserNotifier {
	return &BrowserNotifier{pagePath: pagePath, open: openBrowser}
}

// Notify opens the page once per batch
func (n *BrowserNotifier) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	if len(events) == 0 {
		return nil
	}

	path, err := filepath.Abs(n.pagePath(activity))
	if err != nil {
		return fmt.Errorf("resolving page path: %w", err)
	}

	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	if err := n.open(target); err != nil {
		return fmt.Errorf("opening %s: %w", target, err)
	}
	return nil
}

// openBrowser hands target to the desktop's default handler
func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck // the handler's exit status is irrelevant
	return nil
}
