// Package failures collects the ISBNs whose lookups failed during a run.
package failures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
)

// Kind partitions the log
type Kind string

const (
	Data  Kind = "data"
	Cover Kind = "cover"
)

// FileName is the failure log written into an issue's meta directory
const FileName = "failures.json"

// Log is an append-only, thread-safe failure sink
type Log struct {
	mu      sync.Mutex
	entries map[Kind]map[string]struct{}
}

// New creates an empty log
func New() *Log {
	return &Log{
		entries: map[Kind]map[string]struct{}{
			Data:  {},
			Cover: {},
		},
	}
}

// Add records id under kind. Recording the same id twice is a no-op.
func (l *Log) Add(kind Kind, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[kind] == nil {
		l.entries[kind] = make(map[string]struct{})
	}
	l.entries[kind][id] = struct{}{}
}

// List returns the sorted ids recorded under kind
func (l *Log) List(kind Kind) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.entries[kind]))
	for id := range l.entries[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of ids recorded under kind
func (l *Log) Len(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[kind])
}

type document struct {
	Data  []string `json:"data"`
	Cover []string `json:"cover"`
}

// MarshalJSON encodes both partitions, even when empty
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Data: l.List(Data), Cover: l.List(Cover)})
}

// Write atomically replaces path with the log
func (l *Log) Write(path string) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(document{Data: l.List(Data), Cover: l.List(Cover)}); err != nil {
		return fmt.Errorf("failed to encode failure log: %w", err)
	}
	return fsutil.WriteFile(path, buf.Bytes(), 0o644)
}
