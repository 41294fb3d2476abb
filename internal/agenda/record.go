package agenda

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DeletedPrefix marks a soft-deleted entry in the persisted document
const DeletedPrefix = "DELETED: "

// TimestampLayout is the layout of Record timestamps ("YYYY-MM-DDTHH-MM-SS")
const TimestampLayout = "2006-01-02T15-04-05"

// Timestamp formats t the way record timestamps are stored
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Kind tags the variant held by a Record
type Kind int

const (
	// KindActive is an event currently (or last) listed on the agenda
	KindActive Kind = iota
	// KindDeleted is an event that disappeared from the agenda
	KindDeleted
	// KindLegacy is an unstructured entry that could not be migrated
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindActive:
		return "active"
	case KindDeleted:
		return "deleted"
	case KindLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Record is one observed event in a date's history.
//
// Active and Deleted records carry a title and the timestamp of the cycle
// that discovered them. Legacy records only carry Raw, the original string
// entry, which is written back verbatim.
type Record struct {
	Kind      Kind
	Title     string
	Timestamp string
	Raw       string
}

// NewRecord creates an active record
func NewRecord(title, timestamp string) Record {
	return Record{Kind: KindActive, Title: title, Timestamp: timestamp}
}

// LegacyRecord wraps an unstructured entry
func LegacyRecord(raw string) Record {
	return Record{Kind: KindLegacy, Raw: raw}
}

// IsDeleted reports whether the record has been soft-deleted
func (r Record) IsDeleted() bool {
	switch r.Kind {
	case KindDeleted:
		return true
	case KindLegacy:
		return strings.HasPrefix(r.Raw, DeletedPrefix)
	default:
		return false
	}
}

// EventTitle returns the title used to match the record against scraped titles
func (r Record) EventTitle() string {
	if r.Kind == KindLegacy {
		return stripDeleted(r.Raw)
	}
	return r.Title
}

// MarkDeleted soft-deletes the record. Deleting twice is a no-op.
func (r *Record) MarkDeleted() {
	switch r.Kind {
	case KindActive:
		r.Kind = KindDeleted
	case KindLegacy:
		if !strings.HasPrefix(r.Raw, DeletedPrefix) {
			r.Raw = DeletedPrefix + r.Raw
		}
	}
}

// entry is the persisted shape of a structured record
type entry struct {
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON encodes deleted records with the DELETED prefix on the title
// so that older readers of the document keep working.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindActive:
		return json.Marshal(entry{Title: r.Title, Timestamp: r.Timestamp})
	case KindDeleted:
		return json.Marshal(entry{Title: DeletedPrefix + r.Title, Timestamp: r.Timestamp})
	case KindLegacy:
		return json.Marshal(r.Raw)
	default:
		return nil, fmt.Errorf("unknown record kind %d", int(r.Kind))
	}
}

// UnmarshalJSON decodes an entry and migrates older encodings
func (r *Record) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty record")
	}

	switch data[0] {
	case '{':
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("decoding record: %w", err)
		}
		*r = fromEntry(e.Title, e.Timestamp)
		return nil
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding record: %w", err)
		}
		*r = migrateString(raw)
		return nil
	default:
		return fmt.Errorf("unexpected record encoding: %.20s", data)
	}
}

func fromEntry(title, timestamp string) Record {
	if strings.HasPrefix(title, DeletedPrefix) {
		return Record{Kind: KindDeleted, Title: stripDeleted(title), Timestamp: timestamp}
	}
	return NewRecord(title, timestamp)
}

var (
	reprTitle     = regexp.MustCompile(`'title':\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)
	reprTimestamp = regexp.MustCompile(`'timestamp':\s*'([^']*)'`)
)

// migrateString turns a bare string entry back into a structured record
// when it is a stringified {'timestamp': ..., 'title': ...} mapping, which
// is how older versions wrote deleted entries. Anything else stays legacy.
func migrateString(raw string) Record {
	body := stripDeleted(raw)
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		title := reprTitle.FindStringSubmatch(body)
		ts := reprTimestamp.FindStringSubmatch(body)
		if title != nil && ts != nil {
			t := title[1]
			if t == "" {
				t = title[2]
			}
			rec := NewRecord(unescapeRepr(t), ts[1])
			if body != raw {
				rec.Kind = KindDeleted
			}
			return rec
		}
	}
	return LegacyRecord(raw)
}

func unescapeRepr(s string) string {
	return strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\\`, `\`).Replace(s)
}

// stripDeleted removes every leading DELETED prefix; older versions could
// stack them when an already deleted date vanished again.
func stripDeleted(s string) string {
	for strings.HasPrefix(s, DeletedPrefix) {
		s = strings.TrimPrefix(s, DeletedPrefix)
	}
	return s
}
