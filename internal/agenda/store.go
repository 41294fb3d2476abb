package agenda

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bucket is the ordered history of records for one date, in discovery order
type Bucket []Record

// Live returns the number of records that are not deleted
func (b Bucket) Live() int {
	n := 0
	for _, rec := range b {
		if !rec.IsDeleted() {
			n++
		}
	}
	return n
}

// Store maps date labels to their buckets for one activity.
// Date keys keep the order in which they were first seen.
type Store struct {
	buckets map[string]Bucket
	order   []string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		buckets: make(map[string]Bucket),
		order:   make([]string, 0),
	}
}

// Get returns the bucket for a date
func (s *Store) Get(date string) (Bucket, bool) {
	b, ok := s.buckets[date]
	return b, ok
}

// Has reports whether the date is known
func (s *Store) Has(date string) bool {
	_, ok := s.buckets[date]
	return ok
}

// Dates returns the known date labels in discovery order
func (s *Store) Dates() []string {
	dates := make([]string, len(s.order))
	copy(dates, s.order)
	return dates
}

// Len returns the number of known dates
func (s *Store) Len() int {
	return len(s.order)
}

// Count returns the total and live record counts across all dates
func (s *Store) Count() (total, live int) {
	for _, b := range s.buckets {
		total += len(b)
		live += b.Live()
	}
	return total, live
}

// ensure creates an empty bucket for date if it does not exist yet
func (s *Store) ensure(date string) {
	if _, ok := s.buckets[date]; ok {
		return
	}
	s.buckets[date] = Bucket{}
	s.order = append(s.order, date)
}

// Append adds a record at the end of a date's bucket, creating it if needed
func (s *Store) Append(date string, rec Record) {
	s.ensure(date)
	s.buckets[date] = append(s.buckets[date], rec)
}

// Merge appends every record of other to s, date by date
func (s *Store) Merge(other *Store) {
	if other == nil {
		return
	}
	for _, date := range other.order {
		s.ensure(date)
		s.buckets[date] = append(s.buckets[date], other.buckets[date]...)
	}
}

// markDeleted soft-deletes the record at index i of date's bucket
func (s *Store) markDeleted(date string, i int) {
	s.buckets[date][i].MarkDeleted()
}

// MarshalJSON writes the store as one object keyed by date, in discovery order
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, date := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(date)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		bucket := s.buckets[date]
		if bucket == nil {
			bucket = Bucket{}
		}
		val, err := json.Marshal(bucket)
		if err != nil {
			return nil, fmt.Errorf("encoding bucket %q: %w", date, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a store document, keeping the document's key order
func (s *Store) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("store must be a JSON object, got %v", tok)
	}

	fresh := NewStore()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading date key: %w", err)
		}
		date, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected date key %v", tok)
		}

		var bucket Bucket
		if err := dec.Decode(&bucket); err != nil {
			return fmt.Errorf("decoding bucket %q: %w", date, err)
		}
		if bucket == nil {
			bucket = Bucket{}
		}

		if _, dup := fresh.buckets[date]; !dup {
			fresh.order = append(fresh.order, date)
		}
		fresh.buckets[date] = bucket
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading store end: %w", err)
	}

	*s = *fresh
	return nil
}
