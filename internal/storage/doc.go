// Package storage persists each activity's event history as one JSON document.
//
// Documents are always read and written whole. A missing document is an empty
// history; a malformed one is reported as ErrStoreCorrupt and never repaired.
// Two backends are provided: FileStorage keeps {activity}.json files in a
// local data directory (default ~/.local/share/clubot/), and GistStorage keeps
// them in a private GitHub Gist, optionally encrypted.
package storage
