//go:build picc_assert

package utils

import (
	"fmt"
	"math"
)

func AssertFinite(what string, vs ...float64) {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			panic(fmt.Sprintf("%s is not finite: %v", what, vs))
		}
	}
}
