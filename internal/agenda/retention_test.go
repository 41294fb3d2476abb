package agenda

import (
	"testing"
	"time"
)

func TestKeepAll(t *testing.T) {
	rec := NewRecord("A", ts0)
	rec.MarkDeleted()
	store := storeWith(t, "D", rec)

	if archived := (KeepAll{}).Apply(store, time.Now()); archived != nil {
		t.Errorf("KeepAll archived %d dates, want none", archived.Len())
	}
	if bucket, _ := store.Get("D"); len(bucket) != 1 {
		t.Errorf("bucket length = %d, want 1", len(bucket))
	}
}

func TestArchiveDeleted(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	old := Timestamp(now.AddDate(0, -2, 0))
	recent := Timestamp(now.AddDate(0, 0, -2))

	oldDeleted := NewRecord("old", old)
	oldDeleted.MarkDeleted()
	recentDeleted := NewRecord("recent", recent)
	recentDeleted.MarkDeleted()
	legacy := LegacyRecord("DELETED: legacy")

	store := NewStore()
	store.Append("D", oldDeleted)
	store.Append("D", NewRecord("active", old))
	store.Append("D", recentDeleted)
	store.Append("D", legacy)
	store.Append("E", oldDeleted)

	archived := ArchiveDeleted{After: 30 * 24 * time.Hour}.Apply(store, now)
	if archived == nil {
		t.Fatal("Apply() archived nothing")
	}

	bucket, _ := store.Get("D")
	if len(bucket) != 3 {
		t.Fatalf("live bucket length = %d, want 3", len(bucket))
	}
	if bucket[0].Title != "active" || bucket[1].Title != "recent" || bucket[2].Kind != KindLegacy {
		t.Errorf("live bucket = %+v", bucket)
	}

	if !store.Has("E") {
		t.Error("date E should remain even when its bucket is empty")
	}
	if bucket, _ := store.Get("E"); len(bucket) != 0 {
		t.Errorf("bucket E length = %d, want 0", len(bucket))
	}

	if total, _ := archived.Count(); total != 2 {
		t.Errorf("archived %d records, want 2", total)
	}
}
