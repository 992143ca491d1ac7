// Package species holds particle storage: one structure-of-arrays arena per
// species. Particles are deleted by tombstoning their id; storage is only
// reclaimed by Compact, outside of collision passes.
package species

import (
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/utils"
)

const InvalidID int64 = -1

type Species struct {
	Name   string
	Charge float64 // [C]
	Mass   float64 // [kg]

	X, Y, Z    []float64 // [m]
	UX, UY, UZ []float64 // proper velocity [m/s]
	W          []float64
	ID         []int64

	lastID atomic.Int64
}

func New(name string, charge, mass float64) *Species {
	return &Species{Name: name, Charge: charge, Mass: mass}
}

func (s *Species) Len() int {
	return len(s.W)
}

// Add appends a particle with a fresh id and returns its index.
func (s *Species) Add(pos, u r3.Vec, w float64) int {
	i := s.Len()
	s.Resize(i + 1)
	s.X[i], s.Y[i], s.Z[i] = pos.X, pos.Y, pos.Z
	s.SetVelocity(i, u)
	s.W[i] = w
	s.ID[i] = s.NewID()
	return i
}

// Resize grows or shrinks the arena to n slots. New slots are zeroed and
// carry InvalidID until a copy policy fills them.
func (s *Species) Resize(n int) {
	old := s.Len()
	s.X = resize(s.X, n)
	s.Y = resize(s.Y, n)
	s.Z = resize(s.Z, n)
	s.UX = resize(s.UX, n)
	s.UY = resize(s.UY, n)
	s.UZ = resize(s.UZ, n)
	s.W = resize(s.W, n)
	s.ID = resize(s.ID, n)
	for i := old; i < n; i++ {
		s.ID[i] = InvalidID
	}
}

func resize[T any](arr []T, n int) []T {
	if n <= cap(arr) {
		old := len(arr)
		arr = arr[:n]
		if n > old {
			clear(arr[old:])
		}
		return arr
	}
	grown := make([]T, n, max(n, 2*cap(arr)))
	copy(grown, arr)
	return grown
}

func (s *Species) NewID() int64 {
	return s.lastID.Add(1)
}

// Grow appends n empty slots and reserves a contiguous block of n ids for
// them. Slot start+k is meant to receive id firstID+k.
func (s *Species) Grow(n int) (start int, firstID int64) {
	start = s.Len()
	s.Resize(start + n)
	return start, s.lastID.Add(int64(n)) - int64(n) + 1
}

func (s *Species) Position(i int) r3.Vec {
	return r3.Vec{X: s.X[i], Y: s.Y[i], Z: s.Z[i]}
}

func (s *Species) Velocity(i int) r3.Vec {
	return r3.Vec{X: s.UX[i], Y: s.UY[i], Z: s.UZ[i]}
}

func (s *Species) SetVelocity(i int, u r3.Vec) {
	s.UX[i], s.UY[i], s.UZ[i] = u.X, u.Y, u.Z
}

func (s *Species) Weight(i int) float64 {
	return utils.AtomicLoadFloat64(&s.W[i])
}

// SubtractWeight atomically removes dw from particle i and returns what is left.
func (s *Species) SubtractWeight(i int, dw float64) float64 {
	return utils.AtomicAddFloat64(&s.W[i], -dw)
}

// MarkDeleted tombstones particle i. Safe to call more than once.
func (s *Species) MarkDeleted(i int) {
	atomic.StoreInt64(&s.ID[i], InvalidID)
}

func (s *Species) Valid(i int) bool {
	return atomic.LoadInt64(&s.ID[i]) != InvalidID
}

// Compact physically removes tombstoned particles, preserving the order of
// the survivors, and returns how many were removed.
func (s *Species) Compact() int {
	n := 0
	for i := range s.Len() {
		if s.ID[i] == InvalidID {
			continue
		}
		if n != i {
			s.X[n], s.Y[n], s.Z[n] = s.X[i], s.Y[i], s.Z[i]
			s.UX[n], s.UY[n], s.UZ[n] = s.UX[i], s.UY[i], s.UZ[i]
			s.W[n], s.ID[n] = s.W[i], s.ID[i]
		}
		n++
	}
	removed := s.Len() - n
	s.Resize(n)
	return removed
}

func (s *Species) validWeights() []float64 {
	w := make([]float64, 0, s.Len())
	for i := range s.Len() {
		if s.Valid(i) {
			w = append(w, s.W[i])
		}
	}
	return w
}

// TotalWeight is the number of physical particles represented by live particles.
func (s *Species) TotalWeight() float64 {
	return floats.Sum(s.validWeights())
}

// TotalCharge of live particles [C].
func (s *Species) TotalCharge() float64 {
	return s.Charge * s.TotalWeight()
}

// Momentum returns the weighted total momentum of live particles [kg m/s].
func (s *Species) Momentum() r3.Vec {
	var p r3.Vec
	for i := range s.Len() {
		if s.Valid(i) {
			p = r3.Add(p, r3.Scale(s.Mass*s.W[i], s.Velocity(i)))
		}
	}
	return p
}
