package config

import (
	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/utils"
)

var unitToSI = map[string]float64{
	"Pa":   1,              // [Pa]
	"bar":  1e5,            // [Pa]
	"mbar": 1e2,            // [Pa]
	"Torr": 101325. / 760., // [Pa]
	"m":    1,              // [m]
	"cm":   1e-2,           // [m]
	"mm":   1e-3,           // [m]
	"um":   1e-6,           // [m]
	"s":    1,              // [s]
	"ns":   1e-9,           // [s]
	"ps":   1e-12,          // [s]
	"fs":   1e-15,          // [s]
	"K":    1,              // [K]

	"eV": constants.ElectronCharge / constants.KBolzmann, // [K]
}

type UnitClass int

const (
	Length UnitClass = iota
	Time
	Pressure
	Temperature
)

var unitsInClass = map[UnitClass][]string{
	Length:      {"um", "mm", "cm", "m"},
	Time:        {"fs", "ps", "ns", "s"},
	Pressure:    {"Torr", "mbar", "bar", "Pa"},
	Temperature: {"eV", "K"},
}

var classesOfUnits = map[string]UnitClass{
	"Pa":   Pressure,
	"bar":  Pressure,
	"mbar": Pressure,
	"Torr": Pressure,
	"m":    Length,
	"cm":   Length,
	"mm":   Length,
	"um":   Length,
	"s":    Time,
	"ns":   Time,
	"ps":   Time,
	"fs":   Time,
	"K":    Temperature,
	"eV":   Temperature,
}

type UnitElement = struct {
	Class UnitClass
	Power int
}

// checkUnits reports units of an already listed class as conflicts and
// completes the list with the default unit of every missing class.
func checkUnits(units []string) (extended, conflicts []string) {
	classes := map[UnitClass]struct{}{}
	for _, unit := range units {
		class, known := classesOfUnits[unit]
		if !known {
			conflicts = append(conflicts, unit)
			continue
		}
		if _, some := classes[class]; some {
			conflicts = append(conflicts, unit)
		} else {
			classes[class] = struct{}{}
		}
	}
	extended = units
	for _, unit := range defaultUnits {
		if _, some := classes[classesOfUnits[unit]]; !some {
			extended = append(extended, unit)
		}
	}
	return
}

// SI converts v expressed in units into SI when direct is set, and back
// otherwise.
func SI(v float64, classes []UnitElement, units []string, direct bool) float64 {
	for i := range classes {
		uc := classes[i]
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			continue
		}
		absPower := utils.IntAbs(uc.Power)
		if direct == (uc.Power > 0) {
			for range absPower {
				v *= unitToSI[*unit]
			}
		} else {
			for range absPower {
				v /= unitToSI[*unit]
			}
		}
	}
	return v
}

// LengthUnit is the unit lengths are expressed in among units.
func LengthUnit(units []string) string {
	if unit := utils.Intersect(unitsInClass[Length], units); unit != nil {
		return *unit
	}
	return "m"
}
