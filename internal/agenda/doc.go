// Package agenda holds the event history model and the reconciliation engine.
//
// A Store maps scraped date labels to an ordered Bucket of Records. Each poll
// cycle produces a set of Rows which Reconcile merges into the Store: titles
// seen for the first time are appended and reported as Notifications, titles
// that vanished are soft-deleted in place. Nothing is ever removed by
// reconciliation, so the Store is an append-only history of what the agenda
// has ever listed.
//
// Date labels are opaque text. They are never parsed into calendar dates, so
// the same day formatted differently by the upstream site yields two buckets.
package agenda
