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

// InsulationConductivity gives thermal conductivity [W/(m·K)] by
// insulation material.
var InsulationConductivity = map[string]float64{
	"mineral_wool":      0.040,
	"fiberglass":        0.035,
	"polyurethane_foam": 0.025,
	"polystyrene":       0.033,
	"aerogel":           0.014,
}

// StorageConfig holds the inputs to the thermal storage sizing stage.
type StorageConfig struct {
	StorageTime         float64 `desc:"Buffering duration at design power" units:"h"`
	DeltaT              float64 `desc:"Operating temperature difference" units:"K"`
	HDRatio             float64 `desc:"Height-to-diameter ratio"`
	DesignPressure      float64 `desc:"Design pressure" units:"bar"`
	TankTemperature     float64 `desc:"Average tank temperature" units:"°C"`
	AmbientTemperature  float64 `desc:"Ambient temperature" units:"°C"`
	Insulation          string
	InsulationThickness float64 `desc:"Insulation thickness" units:"m"`
	InletDN             int     `desc:"Inlet connection nominal diameter" units:"mm"`
}

// TankDesign holds the results of the thermal storage sizing stage.
type TankDesign struct {
	Volume         float64 `desc:"Tank volume" units:"m³"`
	MinimumVolume  float64 `desc:"Minimum buffering volume" units:"m³"`
	Diameter       float64 `units:"m"`
	Height         float64 `units:"m"`
	WallThickness  float64 `desc:"ASME shell thickness incl. corrosion allowance" units:"m"`
	SurfaceArea    float64 `units:"m²"`
	EnergyCapacity float64 `desc:"Stored energy over ΔT" units:"MJ"`
	Richardson     float64 `desc:"Stratification index" units:"dimensionless"`
	Stratification string
	ULoss          float64 `desc:"Overall loss coefficient" units:"W/(m²·K)"`
	HeatLoss       float64 `desc:"Standby heat loss" units:"W"`
	DailyLoss      float64 `desc:"Standby loss over 24 h" units:"kWh"`
}

// StorageCapacity is the energy [J] stored in volume v [m³] of water
// across temperature difference ΔT [K]: E = V·ρ·cp·ΔT.
func StorageCapacity(v, deltaT float64) float64 {
	return v * WaterRho * WaterCp * deltaT
}

// RequiredVolume is the tank volume [m³] that buffers power [W] for
// storageTime [h] across ΔT [K]: V = Q·t/(ρ·cp·ΔT).
func RequiredVolume(power, storageTime, deltaT float64) float64 {
	return power * storageTime * 3600 / (WaterRho * WaterCp * deltaT)
}

// TankDimensions gives the diameter and height [m] of a vertical
// cylinder of the given volume with height H = k·D:
//	D = ∛(4·V/(π·k))
// H/D ratios of 2-3 favor thermal stratification.
func TankDimensions(volume, hdRatio float64) (d, h float64) {
	d = math.Cbrt(4 * volume / (math.Pi * hdRatio))
	return d, hdRatio * d
}

// TankSurfaceArea is the total outer surface [m²] of a closed vertical
// cylinder: shell π·D·H plus two ends π·D²/4.
func TankSurfaceArea(d, h float64) float64 {
	return math.Pi*d*h + 2*math.Pi*d*d/4
}

// RichardsonNumber is the stratification index
//	Ri = g·β·ΔT·H / v²
// for top-to-bottom temperature difference ΔT [K], tank height h [m],
// and inlet velocity v [m/s]. Ri > 10 indicates strong, stable
// stratification; Ri < 1 indicates a mixed tank.
func RichardsonNumber(deltaT, h, v float64) float64 {
	return Gravity * WaterBeta * deltaT * h / (v * v)
}

// StratificationQuality classifies a Richardson number.
func StratificationQuality(ri float64) string {
	switch {
	case ri > 10:
		return "strong"
	case ri > 5:
		return "moderate"
	case ri > 1:
		return "weak"
	default:
		return "mixed"
	}
}

// HeatLossCoefficient is the overall loss coefficient [W/(m²·K)]
// through the insulation and the outside air film:
//	1/U = 1/h_out + t_ins/k_ins
func HeatLossCoefficient(thickness float64, material string) (float64, error) {
	const hOut = 10.0 // external free convection [W/(m²·K)]
	k, ok := InsulationConductivity[material]
	if !ok {
		return 0, fmt.Errorf("heatrec: unknown insulation material %q", material)
	}
	return 1 / (1/hOut + thickness/k), nil
}

// RequiredInsulationThickness inverts Q = U·A·ΔT for the insulation
// thickness [m] that limits standby loss to target [W]. It returns an
// error when the target is unreachable even with zero insulation
// resistance remaining.
func RequiredInsulationThickness(target, area, deltaT float64, material string) (float64, error) {
	const hOut = 10.0
	k, ok := InsulationConductivity[material]
	if !ok {
		return 0, fmt.Errorf("heatrec: unknown insulation material %q", material)
	}
	uRequired := target / (area * deltaT)
	rIns := 1/uRequired - 1/hOut
	if rIns < 0 {
		return 0, fmt.Errorf("heatrec: heat-loss target %.0f W is above the bare-tank loss; insulation cannot be negative", target)
	}
	return rIns * k, nil
}

// WallThickness is the ASME Section VIII Division 1 shell thickness [m]
// for a cylindrical vessel:
//	t = P·R/(S·E - 0.6·P) + corrosion allowance
// with carbon-steel allowable stress 140 MPa, weld efficiency 0.85, and
// a 3 mm corrosion allowance.
func WallThickness(internalDiameter, designPressurePa float64) float64 {
	const (
		allowableStress    = 140e6
		weldEfficiency     = 0.85
		corrosionAllowance = 0.003
	)
	r := internalDiameter / 2
	return designPressurePa*r/(allowableStress*weldEfficiency-0.6*designPressurePa) + corrosionAllowance
}

// SizeStorage returns a stage that sizes the accumulator tank for the
// design thermal power. The sized volume never falls below the minimum
// buffering requirement for the configured storage duration.
func SizeStorage(cfg StorageConfig) SystemManipulator {
	return func(s *System) error {
		if s.Sources == nil {
			return fmt.Errorf("heatrec: storage stage requires the heat-source analysis")
		}
		if cfg.StorageTime <= 0 || cfg.DeltaT <= 0 {
			return fmt.Errorf("heatrec: storage time and ΔT must be positive")
		}
		if cfg.HDRatio <= 0 {
			return fmt.Errorf("heatrec: tank H/D ratio must be positive")
		}
		if cfg.InletDN <= 0 {
			return fmt.Errorf("heatrec: tank inlet connection DN must be positive")
		}

		power := s.Sources.Design.ThermalPower * 1000 // W
		minVolume := RequiredVolume(power, cfg.StorageTime, cfg.DeltaT)
		volume := minVolume

		d, h := TankDimensions(volume, cfg.HDRatio)

		u, err := HeatLossCoefficient(cfg.InsulationThickness, cfg.Insulation)
		if err != nil {
			return err
		}
		area := TankSurfaceArea(d, h)
		loss := u * area * (cfg.TankTemperature - cfg.AmbientTemperature)

		inletV := FlowVelocity(s.Sources.Design.WaterFlow/3600, float64(cfg.InletDN)/1000)
		ri := RichardsonNumber(cfg.DeltaT, h, inletV)

		t := &TankDesign{
			Volume:         volume,
			MinimumVolume:  minVolume,
			Diameter:       d,
			Height:         h,
			WallThickness:  WallThickness(d, cfg.DesignPressure*1e5),
			SurfaceArea:    area,
			EnergyCapacity: StorageCapacity(volume, cfg.DeltaT) / 1e6,
			Richardson:     ri,
			Stratification: StratificationQuality(ri),
			ULoss:          u,
			HeatLoss:       loss,
			DailyLoss:      loss * 24 / 1000,
		}
		if t.Volume < t.MinimumVolume {
			return fmt.Errorf("heatrec: tank volume %.2f m³ below minimum buffering volume %.2f m³", t.Volume, t.MinimumVolume)
		}

		s.Tank = t
		return nil
	}
}
