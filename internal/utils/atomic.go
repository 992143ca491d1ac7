package utils

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AtomicAddFloat64 adds delta to *addr with a CAS loop and returns the new value.
func AtomicAddFloat64(addr *float64, delta float64) float64 {
	bits := (*uint64)(unsafe.Pointer(addr))
	for {
		old := atomic.LoadUint64(bits)
		updated := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(bits, old, math.Float64bits(updated)) {
			return updated
		}
	}
}

func AtomicLoadFloat64(addr *float64) float64 {
	return math.Float64frombits(atomic.LoadUint64((*uint64)(unsafe.Pointer(addr))))
}
