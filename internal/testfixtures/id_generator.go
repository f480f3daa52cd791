package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// SeriesIDs yields predictable booking series identifiers: "<prefix>-1",
// "<prefix>-2", and so on.
type SeriesIDs struct {
	prefix  string
	counter atomic.Uint64
}

// NewSeriesIDs returns a generator using prefix, or "series" when empty.
func NewSeriesIDs(prefix string) *SeriesIDs {
	if prefix == "" {
		prefix = "series"
	}
	return &SeriesIDs{prefix: prefix}
}

// Next returns the next identifier.
func (g *SeriesIDs) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}
