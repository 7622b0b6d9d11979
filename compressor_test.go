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

import "testing"

// testCompressors is a six-unit compressor station with one backup
// unit, matching a typical pulp-mill compressed air plant.
func testCompressors() []CompressorSpec {
	return []CompressorSpec{
		{ID: 1, Model: "FSD 575", ThermalRecovery: 246, WaterFlow: 8.61, DeltaT: 25, PressureDrop: 0.4},
		{ID: 2, Model: "FSD 575", ThermalRecovery: 246, WaterFlow: 8.61, DeltaT: 25, PressureDrop: 0.4},
		{ID: 3, Model: "FSD 575", ThermalRecovery: 246, WaterFlow: 8.61, DeltaT: 25, PressureDrop: 0.4, Backup: true},
		{ID: 4, Model: "DSDX 305", ThermalRecovery: 130, WaterFlow: 4.5, DeltaT: 25, PressureDrop: 0.35},
		{ID: 5, Model: "DSDX 305", ThermalRecovery: 130, WaterFlow: 4.5, DeltaT: 25, PressureDrop: 0.35},
		{ID: 6, Model: "ESD 445", ThermalRecovery: 196, WaterFlow: 6.71, DeltaT: 25, PressureDrop: 0.4},
	}
}

func testScenarios() []OperatingScenario {
	return []OperatingScenario{
		{Scenario: 1, AirDemand: 62, Probability: 80, ActiveUnits: []int{1, 2, 4}, ThermalPower: 622, WaterFlow: 21.4, Notes: "normal operation"},
		{Scenario: 2, AirDemand: 38, Probability: 12, ActiveUnits: []int{1, 4}, ThermalPower: 376, WaterFlow: 12.9, Notes: "low demand"},
		{Scenario: 3, AirDemand: 95, Probability: 8, ActiveUnits: []int{1, 2, 4, 5, 6}, ThermalPower: 948, WaterFlow: 32.6, Notes: "peak demand"},
	}
}

func testDesign() DesignConditions {
	return DesignConditions{NormalScenario: 1, ThermalPower: 622, WaterFlow: 21.4}
}

func TestAnalyzeSources(t *testing.T) {
	const testTolerance = 1.e-9

	s := &System{}
	if err := AnalyzeSources(testCompressors(), testScenarios(), testDesign())(s); err != nil {
		t.Fatal(err)
	}
	a := s.Sources
	if a.ActiveUnits != 5 {
		t.Errorf("active units: got %d, want 5", a.ActiveUnits)
	}
	if absDifferent(a.InstalledCapacity, 948, testTolerance) {
		t.Errorf("installed capacity: got %g kW, want 948 kW", a.InstalledCapacity)
	}
	if absDifferent(a.TotalFlow, 32.93, testTolerance) {
		t.Errorf("total flow: got %g m³/h, want 32.93 m³/h", a.TotalFlow)
	}
	wantMean := (622. + 376. + 948.) / 3
	if absDifferent(a.PowerMean, wantMean, 1e-6) {
		t.Errorf("scenario power mean: got %g kW, want %g kW", a.PowerMean, wantMean)
	}
	if a.PowerMax != 948 || a.PowerMin != 376 {
		t.Errorf("scenario power range: got [%g, %g], want [376, 948]", a.PowerMin, a.PowerMax)
	}
	if a.PowerStdDev <= 0 {
		t.Errorf("scenario power standard deviation %g must be positive", a.PowerStdDev)
	}
}

// A scenario whose stated power disagrees with ṁ·cp·ΔT recomputed from
// its water flow by more than 1% must be rejected.
func TestAnalyzeSourcesInconsistentScenario(t *testing.T) {
	scenarios := testScenarios()
	scenarios[0].ThermalPower = 700 // flow only supports ~621 kW
	err := AnalyzeSources(testCompressors(), scenarios, testDesign())(&System{})
	if err == nil {
		t.Fatal("expected first-law consistency error")
	}
}

// No scenario may recover more heat than the station can supply.
func TestAnalyzeSourcesExceedsCapacity(t *testing.T) {
	scenarios := testScenarios()
	scenarios[2].ThermalPower = 2000
	scenarios[2].WaterFlow = 68.9 // keeps ṁ·cp·ΔT consistent
	err := AnalyzeSources(testCompressors(), scenarios, testDesign())(&System{})
	if err == nil {
		t.Fatal("expected installed-capacity error")
	}
}

// The design power must not exceed the non-backup installed capacity.
func TestAnalyzeSourcesDesignOutOfRange(t *testing.T) {
	design := testDesign()
	design.ThermalPower = 1200
	err := AnalyzeSources(testCompressors(), testScenarios(), design)(&System{})
	if err == nil {
		t.Fatal("expected design power error")
	}
}

func TestAnalyzeSourcesUnknownUnit(t *testing.T) {
	scenarios := testScenarios()
	scenarios[1].ActiveUnits = []int{99}
	err := AnalyzeSources(testCompressors(), scenarios, testDesign())(&System{})
	if err == nil {
		t.Fatal("expected unknown compressor error")
	}
}
