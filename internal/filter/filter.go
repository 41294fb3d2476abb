// Package filter narrows the events forwarded to notifiers.
//
// A Filter holds keyword lists matched against event titles:
//   - Include: the title must contain at least one keyword
//   - Exclude: the title must contain none of the keywords
//
// Matching is a case-insensitive substring match. Filtering only affects
// notifications; the stored history always records every event.
//
// Example usage:
//
//	// Only hear about ice climbing, never about beginner sessions
//	f := filter.New([]string{"cascade", "glace"}, []string{"initiation"})
//	events = f.Apply(events)
package filter

import (
	"strings"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// Filter represents title filtering criteria
type Filter struct {
	Include []string
	Exclude []string
}

// New creates a filter, dropping blank keywords
func New(include, exclude []string) *Filter {
	return &Filter{
		Include: normalize(include),
		Exclude: normalize(exclude),
	}
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Include) == 0 && len(f.Exclude) == 0)
}

// Matches checks if a title passes the filter. An empty filter matches all titles.
func (f *Filter) Matches(title string) bool {
	if f.IsEmpty() {
		return true
	}

	titleLower := strings.ToLower(title)

	for _, keyword := range f.Exclude {
		if strings.Contains(titleLower, keyword) {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}
	for _, keyword := range f.Include {
		if strings.Contains(titleLower, keyword) {
			return true
		}
	}
	return false
}

// Apply returns the events whose title matches the filter.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []agenda.Notification) []agenda.Notification {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]agenda.Notification, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt.Title) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the filter
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "all events"
	}

	var parts []string
	if len(f.Include) > 0 {
		parts = append(parts, "include: "+strings.Join(f.Include, ", "))
	}
	if len(f.Exclude) > 0 {
		parts = append(parts, "exclude: "+strings.Join(f.Exclude, ", "))
	}
	return strings.Join(parts, "; ")
}
