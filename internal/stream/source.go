// Package stream feeds raw records into an engine: synthetic demo
// streams, JSON-lines and CSV files, and a throttled replay loop.
package stream

import (
	"context"
	"io"

	"github.com/sawpanic/tickgate/internal/tick"
)

// Source yields raw records one at a time. Next returns io.EOF once the
// stream is exhausted.
type Source interface {
	Next(ctx context.Context) (tick.Raw, error)
}

// SliceSource replays a fixed list of records
type SliceSource struct {
	records []tick.Raw
	pos     int
}

// NewSlice creates a source over records
func NewSlice(records []tick.Raw) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record
func (s *SliceSource) Next(ctx context.Context) (tick.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Len returns the total number of records
func (s *SliceSource) Len() int {
	return len(s.records)
}
