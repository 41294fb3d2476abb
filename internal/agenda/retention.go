package agenda

import "time"

// RetentionPolicy decides which records leave the live store after a cycle.
// Apply removes them from store and returns them as a separate store to be
// archived, or nil when nothing was removed. Date keys are never removed.
type RetentionPolicy interface {
	Apply(store *Store, now time.Time) *Store
}

// KeepAll retains the complete history
type KeepAll struct{}

// Apply implements RetentionPolicy
func (KeepAll) Apply(*Store, time.Time) *Store {
	return nil
}

// ArchiveDeleted moves deleted records discovered more than After ago out
// of the live store. Active and legacy records are always kept.
type ArchiveDeleted struct {
	After time.Duration
}

// Apply implements RetentionPolicy
func (p ArchiveDeleted) Apply(store *Store, now time.Time) *Store {
	var archived *Store

	for _, date := range store.order {
		bucket := store.buckets[date]
		kept := make(Bucket, 0, len(bucket))

		for _, rec := range bucket {
			if !p.expired(rec, now) {
				kept = append(kept, rec)
				continue
			}
			if archived == nil {
				archived = NewStore()
			}
			archived.Append(date, rec)
		}

		if len(kept) != len(bucket) {
			store.buckets[date] = kept
		}
	}

	return archived
}

func (p ArchiveDeleted) expired(rec Record, now time.Time) bool {
	if rec.Kind != KindDeleted {
		return false
	}
	seen, err := time.ParseInLocation(TimestampLayout, rec.Timestamp, now.Location())
	if err != nil {
		return false
	}
	return now.Sub(seen) > p.After
}
