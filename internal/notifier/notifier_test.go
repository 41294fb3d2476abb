package notifier

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/filter"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	r.calls++
	return r.err
}

func TestMulti(t *testing.T) {
	first := &recordingNotifier{err: errors.New("telegram down")}
	second := &recordingNotifier{}
	third := &recordingNotifier{err: errors.New("twitter down")}

	err := Multi{first, second, third}.Notify(context.Background(), "ski", []agenda.Notification{{Date: "d", Title: "t"}})
	if err == nil {
		t.Fatal("Notify() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "telegram down") || !strings.Contains(err.Error(), "twitter down") {
		t.Errorf("Notify() error = %v, want both failures", err)
	}
	for i, n := range []*recordingNotifier{first, second, third} {
		if n.calls != 1 {
			t.Errorf("notifier %d called %d times, want 1", i, n.calls)
		}
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := (Multi{}).Notify(context.Background(), "ski", nil); err != nil {
		t.Errorf("Notify() unexpected error: %v", err)
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	events := []agenda.Notification{
		{Date: "Sam 14 mars", Title: "Sortie Mont Blanc"},
		{Date: "Dim 15 mars", Title: "Arête des Cosmiques"},
	}
	if err := n.Notify(context.Background(), "alpinisme", events); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}

	want := "[alpinisme 1/2] Sam 14 mars: Sortie Mont Blanc\n[alpinisme 2/2] Dim 15 mars: Arête des Cosmiques\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestDryRunNotifier_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewDryRunNotifier(&buf).Notify(context.Background(), "ski", nil); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}

func TestBrowserNotifier(t *testing.T) {
	var opened []string
	n := NewBrowserNotifier(func(activity string) string { return "/data/" + activity + ".html" })
	n.open = func(target string) error {
		opened = append(opened, target)
		return nil
	}

	events := []agenda.Notification{{Date: "a", Title: "x"}, {Date: "b", Title: "y"}}
	if err := n.Notify(context.Background(), "escalade", events); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}
	if err := n.Notify(context.Background(), "escalade", nil); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}

	if len(opened) != 1 || opened[0] != "file:///data/escalade.html" {
		t.Errorf("opened = %v, want one file:///data/escalade.html", opened)
	}
}

func TestBrowserNotifier_Error(t *testing.T) {
	n := NewBrowserNotifier(func(activity string) string { return "/tmp/x.html" })
	n.open = func(string) error { return errors.New("no display") }

	err := n.Notify(context.Background(), "ski", []agenda.Notification{{Date: "a", Title: "x"}})
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("Notify() error = %v, want wrapped open failure", err)
	}
}

type capturingNotifier struct {
	events []agenda.Notification
	calls  int
}

func (c *capturingNotifier) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	c.calls++
	c.events = append(c.events, events...)
	return nil
}

func TestFiltered(t *testing.T) {
	next := &capturingNotifier{}
	n := NewFiltered(next, filter.New([]string{"cascade"}, nil))

	events := []agenda.Notification{{Date: "a", Title: "Cascade"}, {Date: "b", Title: "Rando"}}
	if err := n.Notify(context.Background(), "ski", events); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}
	if len(next.events) != 1 || next.events[0].Title != "Cascade" {
		t.Errorf("forwarded %+v, want only Cascade", next.events)
	}

	if err := n.Notify(context.Background(), "ski", []agenda.Notification{{Date: "c", Title: "Rando"}}); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("next called %d times, want 1 (fully filtered batch dropped)", next.calls)
	}
}

func TestDryRunNotifier_RawDateLabel(t *testing.T) {
	var buf bytes.Buffer
	events := []agenda.Notification{{Date: "\n\tSam 14 mars\n", Title: "Sortie ski"}}

	if err := NewDryRunNotifier(&buf).Notify(context.Background(), "ski", events); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}
	if buf.String() != "[ski 1/1] Sam 14 mars: Sortie ski\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestBrowserNotifier_RelativePath(t *testing.T) {
	var opened string
	n := NewBrowserNotifier(func(activity string) string { return filepath.Join("dumps", activity+".html") })
	n.open = func(target string) error {
		opened = target
		return nil
	}

	if err := n.Notify(context.Background(), "ski", []agenda.Notification{{Date: "a", Title: "x"}}); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}

	wd, _ := os.Getwd()
	want := "file://" + filepath.ToSlash(filepath.Join(wd, "dumps", "ski.html"))
	if opened != want {
		t.Errorf("opened = %q, want %q", opened, want)
	}
}
