package service

import "sync/atomic"

// Generation hands out monotonically increasing request numbers so that a
// caller can drop results from a superseded lookup.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns its number.
func (g *Generation) Next() uint64 { return g.n.Add(1) }

// IsCurrent reports whether n is still the latest generation.
func (g *Generation) IsCurrent(n uint64) bool { return g.n.Load() == n }
