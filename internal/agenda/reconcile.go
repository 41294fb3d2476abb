package agenda

// Notification reports an event title seen for a date for the first time
type Notification struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

// Suppression reports a record that was soft-deleted during a cycle.
// WholeDate is set when the date's listing vanished entirely.
type Suppression struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	WholeDate bool   `json:"whole_date"`
}

// Result contains the outcome of one reconciliation pass
type Result struct {
	Notifications []Notification `json:"new_events"`
	Suppressions  []Suppression  `json:"suppressed"`
}

// Reconcile merges one cycle's scraped rows into store and returns what changed.
//
// For every scraped date:
//   - known date, no titles: every live record is marked deleted
//   - unknown date, no titles: nothing happens
//   - unknown date, titles: the date is added and every title is new
//   - known date, titles: titles without a live record are new, live
//     records whose title is no longer listed are marked deleted
//
// New titles are appended with the given timestamp after all dates have been
// examined. A title whose records are all deleted counts as new again, so
// reappearing events get a fresh record after their deleted one.
func Reconcile(store *Store, rows []Row, timestamp string) *Result {
	result := &Result{
		Notifications: make([]Notification, 0),
		Suppressions:  make([]Suppression, 0),
	}

	snap := NewSnapshot(rows)

	for _, date := range snap.Dates() {
		titles := snap.Titles(date)
		bucket, exists := store.Get(date)

		switch {
		case exists && len(titles) == 0:
			for i, rec := range bucket {
				if rec.IsDeleted() {
					continue
				}
				store.markDeleted(date, i)
				result.Suppressions = append(result.Suppressions, Suppression{
					Date:      date,
					Title:     rec.EventTitle(),
					WholeDate: true,
				})
			}

		case !exists && len(titles) == 0:
			continue

		case !exists:
			store.ensure(date)
			for _, title := range titles {
				result.Notifications = append(result.Notifications, Notification{Date: date, Title: title})
			}

		default:
			live := make(map[string]bool, len(bucket))
			for _, rec := range bucket {
				if !rec.IsDeleted() {
					live[rec.EventTitle()] = true
				}
			}

			listed := make(map[string]bool, len(titles))
			for _, title := range titles {
				listed[title] = true
				if !live[title] {
					result.Notifications = append(result.Notifications, Notification{Date: date, Title: title})
				}
			}

			for i, rec := range bucket {
				if rec.IsDeleted() || listed[rec.EventTitle()] {
					continue
				}
				store.markDeleted(date, i)
				result.Suppressions = append(result.Suppressions, Suppression{
					Date:  date,
					Title: rec.EventTitle(),
				})
			}
		}
	}

	for _, n := range result.Notifications {
		store.Append(n.Date, NewRecord(n.Title, timestamp))
	}

	return result
}
