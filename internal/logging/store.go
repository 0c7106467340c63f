package logging

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

const (
	// DefaultStoreCapacity bounds the number of records kept in memory.
	DefaultStoreCapacity = 1000
	// DefaultQueryLimit caps query results when the caller does not choose a limit.
	DefaultQueryLimit = 100
)

// Record is a single structured log line kept by the Store.
type Record struct {
	Level      string         `json:"level"`
	Timestamp  string         `json:"timestamp"`
	Message    string         `json:"message"`
	Module     *string        `json:"module"`
	Function   *string        `json:"function"`
	LineNumber *int           `json:"line_number"`
	RequestID  *string        `json:"request_id"`
	Extra      map[string]any `json:"extra"`
}

// Query describes the optional filters applied by Store.Query. Zero values
// disable the corresponding filter, except Limit which is always applied.
type Query struct {
	Level     string
	From      time.Time
	To        time.Time
	RequestID string
	Limit     int
}

// Store is a bounded, process-local buffer of log records. Once full, every
// append evicts the single oldest record.
type Store struct {
	mu       sync.Mutex
	capacity int
	records  []Record
	head     int
	size     int
}

// NewStore constructs a store holding at most capacity records.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &Store{
		capacity: capacity,
		records:  make([]Record, capacity),
	}
}

// Capacity reports the maximum number of retained records.
func (s *Store) Capacity() int {
	if s == nil {
		return 0
	}
	return s.capacity
}

// Len reports the number of retained records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Append adds rec to the store, evicting the oldest record when full.
func (s *Store) Append(rec Record) {
	if s == nil {
		return
	}
	if rec.Extra == nil {
		rec.Extra = map[string]any{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tail := (s.head + s.size) % s.capacity
	s.records[tail] = rec
	if s.size < s.capacity {
		s.size++
		return
	}
	s.head = (s.head + 1) % s.capacity
}

// Snapshot returns the retained records oldest first.
func (s *Store) Snapshot() []Record {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.records[(s.head+i)%s.capacity]
	}
	return out
}

// Query returns the records matching q, newest timestamp first. Range
// filters compare parsed timestamps; records whose timestamp does not parse
// are excluded from ranged queries. Ordering compares the raw timestamp
// strings, with unparseable timestamps sorting last.
func (s *Store) Query(q Query) []Record {
	if s == nil {
		return []Record{}
	}
	records := s.Snapshot()

	var fold cases.Caser
	level := strings.TrimSpace(q.Level)
	if level != "" {
		fold = cases.Fold()
		level = fold.String(level)
	}
	requestID := q.RequestID
	ranged := !q.From.IsZero() || !q.To.IsZero()

	matched := make([]sortableRecord, 0, len(records))
	for _, rec := range records {
		if level != "" && fold.String(rec.Level) != level {
			continue
		}
		ts, parsed := ParseTimestamp(rec.Timestamp)
		if ranged {
			if !parsed {
				continue
			}
			if !q.From.IsZero() && ts.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && ts.After(q.To) {
				continue
			}
		}
		if requestID != "" && (rec.RequestID == nil || *rec.RequestID != requestID) {
			continue
		}
		key := ""
		if parsed {
			key = rec.Timestamp
		}
		matched = append(matched, sortableRecord{key: key, record: rec})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].key > matched[j].key
	})

	limit := q.Limit
	if limit < 0 {
		limit = 0
	}
	if limit > len(matched) {
		limit = len(matched)
	}
	out := make([]Record, limit)
	for i := range out {
		out[i] = matched[i].record
	}
	return out
}

type sortableRecord struct {
	key    string
	record Record
}
