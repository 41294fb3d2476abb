package agenda

import "strings"

// Row is one scraped agenda table row: a date label and the event titles
// listed under it, in page order. Titles may be empty.
type Row struct {
	Date   string   `json:"date"`
	Titles []string `json:"titles"`
}

// Snapshot is what the agenda lists for each date during one cycle.
// Titles for a date form a set that remembers first-occurrence order.
type Snapshot struct {
	dates  []string
	titles map[string][]string
}

// NewSnapshot collapses scraped rows into a snapshot. A date that appears in
// several rows gets the union of their titles.
func NewSnapshot(rows []Row) *Snapshot {
	snap := &Snapshot{
		dates:  make([]string, 0, len(rows)),
		titles: make(map[string][]string, len(rows)),
	}
	seen := make(map[string]map[string]bool, len(rows))

	for _, row := range rows {
		if _, ok := seen[row.Date]; !ok {
			seen[row.Date] = make(map[string]bool)
			snap.dates = append(snap.dates, row.Date)
			snap.titles[row.Date] = make([]string, 0, len(row.Titles))
		}
		for _, title := range row.Titles {
			if seen[row.Date][title] {
				continue
			}
			seen[row.Date][title] = true
			snap.titles[row.Date] = append(snap.titles[row.Date], title)
		}
	}

	return snap
}

// Dates returns the dates in the order they were scraped
func (s *Snapshot) Dates() []string {
	return s.dates
}

// Titles returns the distinct titles listed for date
func (s *Snapshot) Titles(date string) []string {
	return s.titles[date]
}

// Label returns a date key with its whitespace collapsed, for display.
// Keys themselves are stored exactly as scraped.
func Label(date string) string {
	return strings.Join(strings.Fields(date), " ")
}
