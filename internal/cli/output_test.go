package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/poller"
)

func TestWriteCheck_Text(t *testing.T) {
	outcomes := []poller.Outcome{
		{
			Activity: "alpinisme",
			Result: &agenda.Result{
				Notifications: []agenda.Notification{{Date: "Sam 14 mars", Title: "Mont Blanc"}},
				Suppressions:  []agenda.Suppression{{Date: "Dim 15 mars", Title: "Cosmiques"}},
			},
		},
		{Activity: "escalade", Result: &agenda.Result{}},
		{Activity: "ski", Err: errors.New("fetch failure")},
	}
	result := newCheckResult(outcomes, time.Now())

	var buf bytes.Buffer
	if err := WriteCheck(&buf, result, FormatText); err != nil {
		t.Fatalf("WriteCheck() error: %v", err)
	}
	out := buf.String()

	wants := []string{
		"alpinisme (1 new):",
		"NEW: Sam 14 mars: Mont Blanc",
		"DELETED: Dim 15 mars: Cosmiques",
		"ski: FAILED: fetch failure",
		"Total: 1 new across 3 activities",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "escalade") {
		t.Errorf("unchanged activity should not be listed:\n%s", out)
	}
}

func TestNewCheckResult_EmptyEventsNotNull(t *testing.T) {
	result := newCheckResult([]poller.Outcome{{Activity: "ski", Result: &agenda.Result{}}}, time.Now())

	var buf bytes.Buffer
	if err := WriteCheck(&buf, result, FormatJSON); err != nil {
		t.Fatalf("WriteCheck() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"new_events": []`) {
		t.Errorf("new_events should be an empty array:\n%s", buf.String())
	}
}

func TestWriteHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, newHistory("ski", agenda.NewStore(), false), FormatText); err != nil {
		t.Fatalf("WriteHistory() error: %v", err)
	}
	if buf.String() != "No events recorded for ski.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewHistory_Legacy(t *testing.T) {
	store := agenda.NewStore()
	store.Append("d", agenda.LegacyRecord("DELETED: vieille sortie"))
	store.Append("d", agenda.LegacyRecord("sortie"))

	h := newHistory("ski", store, true)
	if len(h.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(h.Entries))
	}
	if h.Entries[0].State != "deleted" || h.Entries[0].Title != "vieille sortie" {
		t.Errorf("entry 0 = %+v", h.Entries[0])
	}
	if h.Entries[1].State != "legacy" {
		t.Errorf("entry 1 = %+v", h.Entries[1])
	}

	if got := newHistory("ski", store, false); len(got.Entries) != 1 {
		t.Errorf("live entries = %d, want 1", len(got.Entries))
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	if err := WriteCheck(&bytes.Buffer{}, &CheckResult{}, "xml"); err == nil {
		t.Error("WriteCheck() expected error for unknown format")
	}
	if err := WriteHistory(&bytes.Buffer{}, &History{}, "xml"); err == nil {
		t.Error("WriteHistory() expected error for unknown format")
	}
}
