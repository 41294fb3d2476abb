package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/poller"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ActivityReport is the outcome of one activity in a check
type ActivityReport struct {
	Activity   string                `json:"activity"`
	NewEvents  []agenda.Notification `json:"new_events"`
	Suppressed []agenda.Suppression  `json:"suppressed,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// CheckResult contains the data printed by check
type CheckResult struct {
	CheckedAt  time.Time        `json:"checked_at"`
	Activities []ActivityReport `json:"activities"`
	EventCount int              `json:"event_count"`
}

func newCheckResult(outcomes []poller.Outcome, checkedAt time.Time) *CheckResult {
	result := &CheckResult{
		CheckedAt:  checkedAt,
		Activities: make([]ActivityReport, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		report := ActivityReport{
			Activity:  o.Activity,
			NewEvents: []agenda.Notification{},
		}
		if o.Result != nil {
			if o.Result.Notifications != nil {
				report.NewEvents = o.Result.Notifications
			}
			report.Suppressed = o.Result.Suppressions
		}
		if o.Err != nil {
			report.Error = o.Err.Error()
		}
		result.EventCount += len(report.NewEvents)
		result.Activities = append(result.Activities, report)
	}

	return result
}

// WriteCheck writes a check result in the specified format
func WriteCheck(w io.Writer, result *CheckResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeCheckText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeCheckText(w io.Writer, result *CheckResult) error {
	for _, a := range result.Activities {
		if a.Error != "" {
			fmt.Fprintf(w, "%s: FAILED: %s\n", a.Activity, a.Error)
			continue
		}
		if len(a.NewEvents) == 0 && len(a.Suppressed) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n%s (%d new):\n", a.Activity, len(a.NewEvents))
		for _, evt := range a.NewEvents {
			fmt.Fprintf(w, "  NEW: %s: %s\n", agenda.Label(evt.Date), evt.Title)
		}
		for _, s := range a.Suppressed {
			fmt.Fprintf(w, "  DELETED: %s: %s\n", agenda.Label(s.Date), s.Title)
		}
	}

	if result.EventCount == 0 {
		fmt.Fprintln(w, "No new events found.")
		return nil
	}

	fmt.Fprintf(w, "\nTotal: %d new across %d activities\n", result.EventCount, len(result.Activities))
	return nil
}

// HistoryEntry is one stored record as printed by show
type HistoryEntry struct {
	Date       string `json:"date"`
	Title      string `json:"title"`
	Discovered string `json:"discovered,omitempty"`
	State      string `json:"state"`
}

// History is the stored history of an activity
type History struct {
	Activity string         `json:"activity"`
	Total    int            `json:"total"`
	Live     int            `json:"live"`
	Entries  []HistoryEntry `json:"entries"`
	ShowAll  bool           `json:"show_all,omitempty"`
}

func newHistory(activity string, store *agenda.Store, all bool) *History {
	h := &History{
		Activity: activity,
		Entries:  []HistoryEntry{},
		ShowAll:  all,
	}
	h.Total, h.Live = store.Count()

	for _, date := range store.Dates() {
		bucket, _ := store.Get(date)
		for _, rec := range bucket {
			if rec.IsDeleted() && !all {
				continue
			}
			state := rec.Kind.String()
			if rec.IsDeleted() {
				state = agenda.KindDeleted.String()
			}
			h.Entries = append(h.Entries, HistoryEntry{
				Date:       date,
				Title:      rec.EventTitle(),
				Discovered: rec.Timestamp,
				State:      state,
			})
		}
	}

	return h
}

// WriteHistory writes a history in the specified format
func WriteHistory(w io.Writer, history *History, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, history)
	case FormatText:
		return writeHistoryText(w, history)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeHistoryText(w io.Writer, history *History) error {
	if len(history.Entries) == 0 {
		fmt.Fprintf(w, "No events recorded for %s.\n", history.Activity)
		return nil
	}

	for _, e := range history.Entries {
		line := fmt.Sprintf("%s: %s", agenda.Label(e.Date), e.Title)
		if e.State == agenda.KindDeleted.String() {
			line = "[deleted] " + line
		}
		if e.Discovered != "" {
			line += fmt.Sprintf(" (%s)", e.Discovered)
		}
		fmt.Fprintln(w, line)
	}

	if history.ShowAll {
		fmt.Fprintf(w, "\nTotal: %d records, %d live\n", history.Total, history.Live)
	} else {
		fmt.Fprintf(w, "\nTotal: %d live events\n", history.Live)
	}
	return nil
}
