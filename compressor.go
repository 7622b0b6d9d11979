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

	"github.com/GaryBoone/GoStats/stats"
)

// CompressorSpec describes one compressor heat source: an air compressor
// fitted with an oil-to-water plate exchanger from which heat is
// recovered.
type CompressorSpec struct {
	ID              int
	Model           string
	ThermalRecovery float64 `desc:"Maximum recoverable thermal power" units:"kW"`
	WaterFlow       float64 `desc:"Cooling water flow" units:"m³/h"`
	DeltaT          float64 `desc:"Water temperature rise" units:"K"`
	PressureDrop    float64 `desc:"Internal exchanger pressure drop" units:"bar"`
	Backup          bool    `desc:"Unit only runs when another unit fails"`
}

// OperatingScenario describes one operating condition of the compressor
// station: which units run and the resulting recoverable heat.
type OperatingScenario struct {
	Scenario     int
	AirDemand    float64 `desc:"Compressed air demand" units:"m³/min"`
	Probability  float64 `desc:"Fraction of operating time" units:"%"`
	ActiveUnits  []int
	ThermalPower float64 `desc:"Recoverable thermal power" units:"kW"`
	WaterFlow    float64 `desc:"Total cooling water flow" units:"m³/h"`
	Notes        string
}

// DesignConditions identifies the scenario the downstream components are
// sized for.
type DesignConditions struct {
	NormalScenario int
	ThermalPower   float64 `desc:"Design thermal power" units:"kW"`
	WaterFlow      float64 `desc:"Design water flow" units:"m³/h"`
}

// SourceAnalysis holds the results of the heat-source analysis stage.
type SourceAnalysis struct {
	Compressors []CompressorSpec
	Scenarios   []OperatingScenario
	Design      DesignConditions

	InstalledCapacity float64 `desc:"Sum of non-backup recoverable power" units:"kW"`
	TotalFlow         float64 `desc:"Sum of non-backup water flow" units:"m³/h"`
	ActiveUnits       int

	// Distribution of recoverable power across scenarios.
	PowerMean   float64 `desc:"Mean scenario thermal power" units:"kW"`
	PowerStdDev float64 `desc:"Scenario thermal power standard deviation" units:"kW"`
	PowerMax    float64 `desc:"Maximum scenario thermal power" units:"kW"`
	PowerMin    float64 `desc:"Minimum scenario thermal power" units:"kW"`
}

// scenarioTolerance is the maximum relative disagreement accepted
// between a scenario's stated thermal power and Q̇ = ṁ·cp·ΔT
// recomputed from its water flow.
const scenarioTolerance = 0.01

// AnalyzeSources returns a stage that verifies the compressor and
// scenario data and computes the station's recoverable capacity.
//
// Every scenario is checked against the first law (its stated power
// must match ṁ·cp·ΔT recomputed from its flow within 1%) and against
// the installed capacity (no scenario may recover more heat than the
// non-backup units can supply).
func AnalyzeSources(compressors []CompressorSpec, scenarios []OperatingScenario, design DesignConditions) SystemManipulator {
	return func(s *System) error {
		if len(compressors) == 0 {
			return fmt.Errorf("heatrec: no compressors specified")
		}
		if len(scenarios) == 0 {
			return fmt.Errorf("heatrec: no operating scenarios specified")
		}

		a := &SourceAnalysis{
			Compressors: compressors,
			Scenarios:   scenarios,
			Design:      design,
		}
		deltaT := make(map[int]float64)
		for _, c := range compressors {
			if c.ThermalRecovery < 0 || c.WaterFlow < 0 || c.DeltaT <= 0 {
				return fmt.Errorf("heatrec: compressor %d (%s) has invalid ratings", c.ID, c.Model)
			}
			deltaT[c.ID] = c.DeltaT
			if c.Backup {
				continue
			}
			a.InstalledCapacity += c.ThermalRecovery
			a.TotalFlow += c.WaterFlow
			a.ActiveUnits++
		}

		var d stats.Stats
		for _, sc := range scenarios {
			if sc.ThermalPower < 0 {
				return fmt.Errorf("heatrec: scenario %d: negative thermal power", sc.Scenario)
			}
			// A failure scenario may substitute the backup unit, so the
			// bound is the station total including backups.
			if sc.ThermalPower > totalCapacity(compressors)*(1+scenarioTolerance) {
				return fmt.Errorf("heatrec: scenario %d: thermal power %.0f kW exceeds installed capacity %.0f kW",
					sc.Scenario, sc.ThermalPower, totalCapacity(compressors))
			}
			if err := verifyScenarioDuty(sc, deltaT); err != nil {
				return err
			}
			d.Update(sc.ThermalPower)
		}
		a.PowerMean = d.Mean()
		if d.Count() > 1 {
			a.PowerStdDev = d.SampleStandardDeviation()
		}
		a.PowerMax = d.Max()
		a.PowerMin = d.Min()

		if design.ThermalPower <= 0 || design.ThermalPower > a.InstalledCapacity {
			return fmt.Errorf("heatrec: design thermal power %.0f kW outside (0, %.0f] kW",
				design.ThermalPower, a.InstalledCapacity)
		}

		s.Sources = a
		return nil
	}
}

// verifyScenarioDuty recomputes a scenario's thermal power from its
// water flow and the active units' temperature rise, and checks the
// stated figure against it.
func verifyScenarioDuty(sc OperatingScenario, deltaT map[int]float64) error {
	if len(sc.ActiveUnits) == 0 || sc.WaterFlow == 0 {
		if sc.ThermalPower != 0 {
			return fmt.Errorf("heatrec: scenario %d: thermal power with no active units", sc.Scenario)
		}
		return nil
	}
	// All compressors in the station run the same water ΔT; use the
	// first active unit's value.
	dT, ok := deltaT[sc.ActiveUnits[0]]
	if !ok {
		return fmt.Errorf("heatrec: scenario %d references unknown compressor %d", sc.Scenario, sc.ActiveUnits[0])
	}
	q := HeatDuty(MassFlow(sc.WaterFlow), dT) / 1000 // kW
	if relDiff(q, sc.ThermalPower) > scenarioTolerance {
		return fmt.Errorf("heatrec: scenario %d: stated %.1f kW but ṁ·cp·ΔT gives %.1f kW (>%.0f%% apart)",
			sc.Scenario, sc.ThermalPower, q, scenarioTolerance*100)
	}
	return nil
}

func totalCapacity(compressors []CompressorSpec) float64 {
	var t float64
	for _, c := range compressors {
		t += c.ThermalRecovery
	}
	return t
}

// relDiff is the relative difference |a-b| / max(|a|,|b|).
func relDiff(a, b float64) float64 {
	m := math.Max(math.Abs(a), math.Abs(b))
	if m == 0 {
		return 0
	}
	return math.Abs(a-b) / m
}
