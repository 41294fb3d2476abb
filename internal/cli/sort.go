package cli

import (
	"sort"
	"strings"
)

// SortOrder represents the available sorting options for show
type SortOrder string

const (
	SortByStore      SortOrder = "store"
	SortByTitle      SortOrder = "title"
	SortByDiscovered SortOrder = "discovered"
)

func (s SortOrder) valid() bool {
	switch s {
	case SortByStore, SortByTitle, SortByDiscovered:
		return true
	}
	return false
}

// sortEntries sorts history entries. Date labels are free text, so the
// store order is the only chronological order available and is the default.
func sortEntries(entries []HistoryEntry, order SortOrder) {
	switch order {
	case SortByTitle:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
		})
	case SortByDiscovered:
		// Timestamps sort lexically; legacy entries without one go last
		sort.SliceStable(entries, func(i, j int) bool {
			ti, tj := entries[i].Discovered, entries[j].Discovered
			if ti == "" || tj == "" {
				return ti != "" && tj == ""
			}
			return ti < tj
		})
	}
}
