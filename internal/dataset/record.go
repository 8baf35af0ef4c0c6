package dataset

import (
	"bytes"
	"encoding/json"
)

// Record is an output record with a fixed key order
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set assigns a value. A key that already exists keeps its position.
func (r *Record) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key
func (r *Record) Get(key string) string {
	return r.values[key]
}

// Has reports whether key was set
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in order
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// MarshalJSON encodes the record as an object in key order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(r.values[key]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
