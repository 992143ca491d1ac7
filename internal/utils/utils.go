package utils

import (
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/wildstyl3r/picc/internal/constants"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func SumSlice[T Number](arr []T) (r T) {
	for i := range arr {
		r += arr[i]
	}
	return
}

// ExclusiveSum writes into offsets the exclusive prefix sum of mask
// (offsets[i] = mask[0] + ... + mask[i-1]) and returns the total.
func ExclusiveSum[T Number](mask []T, offsets []T) (total T) {
	for i := range mask {
		offsets[i] = total
		total += mask[i]
	}
	return
}

func Average[T Number](s []T) (mean float64) {
	for i := range s {
		mean += float64(s[i])
	}
	mean /= float64(len(s))
	return
}

func MeanAndVariance[T Number](s []T, unbiased bool) (mean, variance float64) {
	mean = Average(s)
	for i := range s {
		variance += (float64(s[i]) - mean) * (float64(s[i]) - mean)
	}
	if unbiased {
		variance /= float64(len(s) - 1)
	} else {
		variance /= float64(len(s))
	}

	return
}

func EV2J(val float64) float64 {
	return val * constants.ElectronCharge
}

func J2eV(val float64) float64 {
	return val / constants.ElectronCharge
}

func IntAbs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// Intersect returns the first element of a that is also in b.
func Intersect(a, b []string) *string {
	for i := range a {
		if slices.Contains(b, a[i]) {
			return &a[i]
		}
	}
	return nil
}
