/*
Copyright © 2025 the HeatRec authors.
This file is part of HeatRec.

HeatRec is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

HeatRec is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with HeatRec.  If not, see <http://www.gnu.org/licenses/>.
*/

package heatrec

import (
	"fmt"
	"math"
)

// Physical constants for the working fluid (water at 20°C) and ambient
// conditions.
const (
	WaterRho           = 998.0    // density [kg/m³]
	WaterCp            = 4186.0   // specific heat capacity [J/(kg·K)]
	WaterMu            = 1.002e-3 // dynamic viscosity [Pa·s]
	WaterBeta          = 2.07e-4  // thermal expansion coefficient [1/K]
	WaterVaporPressure = 2.34e3   // vapor pressure [Pa]
	AtmPressure        = 101325.0 // atmospheric pressure [Pa]
	Gravity            = 9.81     // gravitational acceleration [m/s²]
)

// Reynolds number regime boundaries.
const (
	reLaminarMax   = 2300.
	reTurbulentMin = 4000.
)

// Roughness gives absolute pipe roughness [m] by material.
var Roughness = map[string]float64{
	"commercial_steel": 4.5e-5,
	"pvc":              1.5e-6,
	"copper":           1.5e-6,
	"cast_iron":        2.6e-4,
	"galvanized_steel": 1.5e-4,
	"concrete":         3.0e-4,
}

// StandardDN is the series of standard nominal pipe diameters [mm].
var StandardDN = []int{15, 20, 25, 32, 40, 50, 65, 80, 100, 125, 150, 200, 250, 300}

// FittingK gives loss coefficients for common pipe fittings.
var FittingK = map[string]float64{
	"90_elbow":         0.9,
	"45_elbow":         0.4,
	"tee_branch":       1.8,
	"tee_line":         0.9,
	"gate_valve_open":  0.2,
	"globe_valve_open": 10.0,
	"check_valve":      2.5,
	"entrance_sharp":   0.5,
	"entrance_rounded": 0.05,
	"exit":             1.0,
}

// ReynoldsNumber calculates the Reynolds number Re = ρ·v·D/μ for flow at
// velocity v [m/s] in a pipe of internal diameter d [m].
func ReynoldsNumber(v, d float64) float64 {
	return WaterRho * v * d / WaterMu
}

// FlowRegime classifies a Reynolds number as "laminar", "transitional",
// or "turbulent".
func FlowRegime(re float64) string {
	switch {
	case re < reLaminarMax:
		return "laminar"
	case re > reTurbulentMin:
		return "turbulent"
	default:
		return "transitional"
	}
}

// frictionFactorSwameeJain is the explicit Swamee-Jain approximation to
// the Colebrook-White equation:
//	f = 0.25 / [log₁₀(ε/(3.7·D) + 5.74/Re^0.9)]²
// valid for 4000 < Re < 1e8 and 1e-6 < ε/D < 1e-2.
func frictionFactorSwameeJain(re, roughness, d float64) float64 {
	term := roughness/d/3.7 + 5.74/math.Pow(re, 0.9)
	l := math.Log10(term)
	return 0.25 / (l * l)
}

// FrictionFactorColebrook iteratively solves the implicit Colebrook-White
// equation
//	1/√f = -2·log₁₀(ε/(3.7·D) + 2.51/(Re·√f))
// starting from the Swamee-Jain estimate. It returns an error if the
// iteration does not converge within the bounded step count.
func FrictionFactorColebrook(re, roughness, d float64) (float64, error) {
	const (
		maxIter = 50
		tol     = 1e-6
	)
	f := frictionFactorSwameeJain(re, roughness, d)
	for i := 0; i < maxIter; i++ {
		rhs := -2 * math.Log10(roughness/d/3.7+2.51/(re*math.Sqrt(f)))
		fNew := 1 / (rhs * rhs)
		if math.Abs(fNew-f) < tol {
			return fNew, nil
		}
		f = fNew
	}
	return f, fmt.Errorf("heatrec: Colebrook-White friction factor did not converge within %d iterations (Re=%g, ε/D=%g)", maxIter, re, roughness/d)
}

// FrictionFactor calculates the Darcy friction factor for any flow
// regime: f = 64/Re for laminar flow, Swamee-Jain for turbulent flow,
// and a linear interpolation between the two across the transitional
// band.
func FrictionFactor(re, roughness, d float64) float64 {
	switch {
	case re < reLaminarMax:
		return 64. / re
	case re > reTurbulentMin:
		return frictionFactorSwameeJain(re, roughness, d)
	default:
		fLam := 64. / reLaminarMax
		fTurb := frictionFactorSwameeJain(reTurbulentMin, roughness, d)
		return fLam + (fTurb-fLam)*(re-reLaminarMax)/(reTurbulentMin-reLaminarMax)
	}
}

// FlowDetails holds the intermediate quantities of a pressure drop
// calculation.
type FlowDetails struct {
	Re             float64 `desc:"Reynolds number" units:"dimensionless"`
	FrictionFactor float64 `desc:"Darcy friction factor" units:"dimensionless"`
	Regime         string  `desc:"Flow regime"`
	Velocity       float64 `desc:"Flow velocity" units:"m/s"`
	Diameter       float64 `desc:"Internal diameter" units:"m"`
	Length         float64 `desc:"Pipe length" units:"m"`
}

// DarcyWeisbach calculates the friction pressure drop [Pa]
//	ΔP = f·(L/D)·(ρ·v²/2)
// for flow at velocity v [m/s] through length l [m] of pipe with
// internal diameter d [m] and absolute roughness [m].
func DarcyWeisbach(v, l, d, roughness float64) (float64, FlowDetails) {
	re := ReynoldsNumber(v, d)
	f := FrictionFactor(re, roughness, d)
	dP := f * (l / d) * (WaterRho * v * v / 2)
	return dP, FlowDetails{
		Re:             re,
		FrictionFactor: f,
		Regime:         FlowRegime(re),
		Velocity:       v,
		Diameter:       d,
		Length:         l,
	}
}

// MinorLoss calculates the pressure drop [Pa] across fittings with total
// loss coefficient kTotal: ΔP = K·(ρ·v²/2).
func MinorLoss(v, kTotal float64) float64 {
	return kTotal * (WaterRho * v * v / 2)
}

// TotalFittingK sums the loss coefficients of an inventory of fittings.
// Unknown fitting types cause an error rather than being silently
// skipped.
func TotalFittingK(fittings map[string]int) (float64, error) {
	var k float64
	for typ, n := range fittings {
		kv, ok := FittingK[typ]
		if !ok {
			return 0, fmt.Errorf("heatrec: unknown fitting type %q", typ)
		}
		k += kv * float64(n)
	}
	return k, nil
}

// EquivalentLength converts a fittings inventory to an equivalent length
// of straight pipe [m] using L_eq = K·D/f with a typical turbulent
// friction factor of 0.02.
func EquivalentLength(fittings map[string]int, d float64) (float64, error) {
	const fTypical = 0.02
	k, err := TotalFittingK(fittings)
	if err != nil {
		return 0, err
	}
	return k * d / fTypical, nil
}

// FlowVelocity gives the mean velocity [m/s] of volumetric flow
// q [m³/s] in a pipe of internal diameter d [m], from the continuity
// equation Q = (π·D²/4)·v.
func FlowVelocity(q, d float64) float64 {
	return 4 * q / (math.Pi * d * d)
}

// DiameterForVelocity gives the internal diameter [m] that carries
// volumetric flow q [m³/s] at velocity v [m/s]: D = √(4·Q/(π·v)).
func DiameterForVelocity(q, v float64) float64 {
	return math.Sqrt(4 * q / (math.Pi * v))
}

// MassFlow converts a volumetric flow [m³/h] to a mass flow [kg/s].
func MassFlow(m3PerHour float64) float64 {
	return m3PerHour / 3600 * WaterRho
}

// HeatDuty is the steady-flow first-law heat rate Q̇ = ṁ·cp·ΔT [W] for
// mass flow massFlow [kg/s] through temperature difference ΔT [K].
func HeatDuty(massFlow, deltaT float64) float64 {
	return massFlow * WaterCp * deltaT
}

// PressureToHead converts a pressure [Pa] to a head of water [m]:
// H = P/(ρ·g).
func PressureToHead(p float64) float64 {
	return p / (WaterRho * Gravity)
}

// HeadToPressure converts a head of water [m] to a pressure [Pa]:
// P = H·ρ·g.
func HeadToPressure(h float64) float64 {
	return h * WaterRho * Gravity
}

// dnInternalDiameter approximates the Schedule 40 internal diameter [m]
// for a nominal diameter [mm]. Wall thickness steps with DN per ASME
// B36.10M.
func dnInternalDiameter(dn int) float64 {
	var wall float64 // mm
	switch {
	case dn <= 50:
		wall = 3.0
	case dn <= 100:
		wall = 4.0
	default:
		wall = 6.0
	}
	return (float64(dn) - 2*wall) / 1000
}
