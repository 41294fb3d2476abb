// Package scraper fetches activity agenda pages and extracts their rows.
//
// Each activity has one agenda page per month at
// {base}/{activity}.html?month={m}&year={Y}. The page holds a table whose
// rows carry a date label (the .agenda-gauche cell) and zero or more event
// titles (h2 blocks). Rows are returned in page order, untouched apart from
// whitespace normalization; date labels are never parsed.
//
// The Builder walks the remaining months of a year and concatenates their
// rows into the scrape for one poll cycle.
package scraper
