package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

func newFileStorage(t *testing.T) *FileStorage {
	t.Helper()
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return s
}

func TestFileStorage_LoadMissing(t *testing.T) {
	s := newFileStorage(t)

	store, err := s.Load(context.Background(), "alpinisme")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Load() returned %d dates, want empty store", store.Len())
	}
}

func TestFileStorage_SaveLoad(t *testing.T) {
	s := newFileStorage(t)

	store := agenda.NewStore()
	store.Append("Sam 14 mars", agenda.NewRecord("Sortie ski", "2026-03-01T08-00-00"))
	deleted := agenda.NewRecord("Rando", "2026-03-01T08-00-00")
	deleted.MarkDeleted()
	store.Append("Sam 14 mars", deleted)
	store.Append("Dim 15 mars", agenda.LegacyRecord("Ancienne sortie"))

	if err := s.Save(context.Background(), "alpinisme", store); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "alpinisme.json"))
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	if !strings.Contains(string(data), `"DELETED: Rando"`) {
		t.Errorf("document should carry the deleted prefix:\n%s", data)
	}

	loaded, err := s.Load(context.Background(), "alpinisme")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !reflect.DeepEqual(loaded.Dates(), store.Dates()) {
		t.Errorf("dates = %v, want %v", loaded.Dates(), store.Dates())
	}
	for _, date := range store.Dates() {
		want, _ := store.Get(date)
		got, _ := loaded.Get(date)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("bucket %q = %+v, want %+v", date, got, want)
		}
	}
}

func TestFileStorage_SaveEmptyStore(t *testing.T) {
	s := newFileStorage(t)

	if err := s.Save(context.Background(), "escalade", agenda.NewStore()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if _, err := os.Stat(s.Path("escalade")); err != nil {
		t.Errorf("empty store should still be written: %v", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestFileStorage_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `{"Sam 14 mars": [`},
		{"array", `[]`},
		{"empty file", ``},
		{"bad entry", `{"Sam 14 mars": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFileStorage(t)
			if err := os.WriteFile(s.Path("ski"), []byte(tt.content), 0644); err != nil {
				t.Fatalf("writing document: %v", err)
			}

			_, err := s.Load(context.Background(), "ski")
			if !errors.Is(err, ErrStoreCorrupt) {
				t.Errorf("Load() error = %v, want ErrStoreCorrupt", err)
			}
		})
	}
}

func TestFileStorage_AppendArchive(t *testing.T) {
	s := newFileStorage(t)

	first := agenda.NewStore()
	first.Append("D", agenda.NewRecord("A", "2026-01-01T08-00-00"))
	second := agenda.NewStore()
	second.Append("D", agenda.NewRecord("B", "2026-01-02T08-00-00"))
	second.Append("E", agenda.NewRecord("C", "2026-01-02T08-00-00"))

	for _, archived := range []*agenda.Store{first, nil, second} {
		if err := s.AppendArchive(context.Background(), "ski", archived); err != nil {
			t.Fatalf("AppendArchive() error: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "ski.archive.json"))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	archive, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if total, _ := archive.Count(); total != 3 {
		t.Errorf("archive holds %d records, want 3", total)
	}
	if bucket, _ := archive.Get("D"); len(bucket) != 2 || bucket[0].Title != "A" || bucket[1].Title != "B" {
		t.Errorf("archive bucket D = %+v", bucket)
	}

	if _, err := os.Stat(s.Path("ski")); !os.IsNotExist(err) {
		t.Error("archiving should not touch the live document")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandHome("~/.local/share/clubot")
	if err != nil {
		t.Fatalf("ExpandHome() error: %v", err)
	}
	if want := filepath.Join(home, ".local/share/clubot"); got != want {
		t.Errorf("ExpandHome() = %q, want %q", got, want)
	}

	if got, _ := ExpandHome("/var/lib/clubot"); got != "/var/lib/clubot" {
		t.Errorf("ExpandHome() = %q, want path unchanged", got)
	}
}
