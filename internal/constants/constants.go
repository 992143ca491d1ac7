package constants

import "math"

// CODATA 2018
const KBolzmann float64 = 1.380649e-23                   // [J/K]
const ElectronCharge = 1.602176634e-19                   // C
const ElectornMass float64 = 9.1093837015e-31            // [kg]
const ProtonMass float64 = 1.67262192369e-27             // [kg]
const AtomicMassUnit float64 = 1.66053906660e-27         // [kg]
const FreeSpacePermittivityE0 float64 = 8.8541878128e-12 // [m^-3 kg^{-1} s^4 A^2]
const SpeedOfLight float64 = 299792458.                  // [m/s]
const ReducedPlanck float64 = 1.054571817e-34            // [J s]

const InvC2 = 1. / (SpeedOfLight * SpeedOfLight)

var WignerSeitzCoeff = math.Cbrt(4. * math.Pi / 3.)
