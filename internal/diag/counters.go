// Package diag accumulates collision statistics and writes them, together
// with species totals, as CSV files.
package diag

import (
	"slices"
	"sync/atomic"

	"github.com/wildstyl3r/picc/internal/utils"
)

// Counters holds, per process and per cell, the number of events since the
// last Reset. The set of processes is fixed at construction, so Add is safe
// from concurrent cell workers.
type Counters struct {
	NumCells int
	AtCell   map[string][]uint64
}

func NewCounters(numCells int, processes ...string) *Counters {
	c := &Counters{NumCells: numCells, AtCell: make(map[string][]uint64, len(processes))}
	for _, p := range processes {
		c.AtCell[p] = make([]uint64, numCells)
	}
	return c
}

func (c *Counters) Add(process string, cell int, n uint64) {
	if n == 0 {
		return
	}
	atomic.AddUint64(&c.AtCell[process][cell], n)
}

func (c *Counters) Processes() []string {
	names := make([]string, 0, len(c.AtCell))
	for name := range c.AtCell {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *Counters) Total(process string) uint64 {
	return utils.SumSlice(c.AtCell[process])
}

func (c *Counters) Totals() map[string]uint64 {
	totals := make(map[string]uint64, len(c.AtCell))
	for name := range c.AtCell {
		totals[name] = c.Total(name)
	}
	return totals
}

func (c *Counters) Reset() {
	for _, cells := range c.AtCell {
		clear(cells)
	}
}
