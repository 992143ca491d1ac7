package species

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid is the uniform cell partition collisions are performed on. In XZ
// geometry N[1] is 1 and Dx.Y is the unit depth of the slab.
type Grid struct {
	Lo r3.Vec
	Dx r3.Vec
	N  [3]int
}

func (g Grid) NumCells() int {
	return g.N[0] * g.N[1] * g.N[2]
}

func (g Grid) CellVolume() float64 {
	return g.Dx.X * g.Dx.Y * g.Dx.Z
}

func cellCoord(x, lo, dx float64, n int) int {
	i := int(math.Floor((x - lo) / dx))
	return min(max(i, 0), n-1)
}

// CellIndex returns the linear index of the cell holding p; positions
// outside the grid are clamped to the boundary cells.
func (g Grid) CellIndex(p r3.Vec) int {
	i := cellCoord(p.X, g.Lo.X, g.Dx.X, g.N[0])
	j := 0
	if g.N[1] > 1 {
		j = cellCoord(p.Y, g.Lo.Y, g.Dx.Y, g.N[1])
	}
	k := cellCoord(p.Z, g.Lo.Z, g.Dx.Z, g.N[2])
	return (k*g.N[1]+j)*g.N[0] + i
}

// Bin lists, per cell, the indices of live particles in ascending order.
func (s *Species) Bin(g Grid) [][]int {
	bins := make([][]int, g.NumCells())
	for i := range s.Len() {
		if !s.Valid(i) {
			continue
		}
		c := g.CellIndex(s.Position(i))
		bins[c] = append(bins[c], i)
	}
	return bins
}
