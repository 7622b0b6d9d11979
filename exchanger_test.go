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

// testExchangerConfig describes the recovery exchanger: closed-loop hot
// water 65→45 °C against industrial water 11→35 °C. The flows are
// chosen so both sides carry the 622 kW design duty.
func testExchangerConfig() ExchangerConfig {
	return ExchangerConfig{
		HotIn:    65,
		HotOut:   45,
		ColdIn:   11,
		ColdOut:  35,
		HotFlow:  26.800,
		ColdFlow: 22.333,
	}
}

func TestLMTDCounterflow(t *testing.T) {
	const testTolerance = 1.e-3
	lmtd, err := LMTDCounterflow(65, 45, 11, 35)
	if err != nil {
		t.Fatal(err)
	}
	// ΔT₁ = 30 K, ΔT₂ = 34 K.
	if absDifferent(lmtd, 31.958, testTolerance) {
		t.Errorf("LMTD: got %g K, want 31.958 K", lmtd)
	}

	// Equal terminal differences degenerate to ΔT.
	lmtd, err = LMTDCounterflow(60, 40, 20, 40)
	if err != nil {
		t.Fatal(err)
	}
	if absDifferent(lmtd, 20, 1e-9) {
		t.Errorf("balanced LMTD: got %g K, want 20 K", lmtd)
	}

	if _, err := LMTDCounterflow(40, 30, 35, 45); err == nil {
		t.Fatal("expected temperature-cross error")
	}
}

func TestEffectivenessNTU(t *testing.T) {
	const testTolerance = 1.e-6
	// Equal capacity rates: ε = NTU/(1+NTU).
	if got := EffectivenessNTU(2, 1); absDifferent(got, 2./3., 1e-9) {
		t.Errorf("ε(NTU=2, Cr=1): got %g, want 2/3", got)
	}
	if got := EffectivenessNTU(2, 0.5); absDifferent(got, 0.7746003, testTolerance) {
		t.Errorf("ε(NTU=2, Cr=0.5): got %g, want 0.7746003", got)
	}
}

// Inverting the ε-NTU relation and applying it forward must reproduce
// the target effectiveness.
func TestNTUFromEffectiveness(t *testing.T) {
	const testTolerance = 1.e-6
	cases := []struct{ ntu, cRatio float64 }{
		{0.75, 0.83},
		{1.7, 0.8},
		{6.4, 0.9},
		{1.0, 1.0},
	}
	for _, c := range cases {
		epsilon := EffectivenessNTU(c.ntu, c.cRatio)
		got, err := NTUFromEffectiveness(epsilon, c.cRatio)
		if err != nil {
			t.Fatal(err)
		}
		if absDifferent(EffectivenessNTU(got, c.cRatio), epsilon, testTolerance) {
			t.Errorf("NTU=%g Cr=%g: inversion gives NTU=%g", c.ntu, c.cRatio, got)
		}
	}

	if _, err := NTUFromEffectiveness(1.2, 0.8); err == nil {
		t.Fatal("expected out-of-range effectiveness error")
	}
}

func TestOverallU(t *testing.T) {
	const testTolerance = 1.e-6
	// Clean exchanger, thin stainless wall.
	u := OverallU(8000, 8000, 0, 0, 0.0005, 16)
	want := 1 / (1./8000 + 0.0005/16 + 1./8000)
	if absDifferent(u, want, testTolerance) {
		t.Errorf("overall U: got %g, want %g", u, want)
	}
	if u >= 8000/2 {
		t.Errorf("overall U %g cannot exceed the series film limit", u)
	}
}

func TestDesignPlateExchanger(t *testing.T) {
	const dutyCheckTolerance = 0.01
	x, err := DesignPlateExchanger(testExchangerConfig(), 622)
	if err != nil {
		t.Fatal(err)
	}
	// The 500 kW frame is too small; the 800 kW frame is the smallest
	// that covers the duty.
	if x.Model.Model != "R55" {
		t.Errorf("selected %s, want R55", x.Model.Model)
	}
	if x.Plates%2 != 0 {
		t.Errorf("plate count %d must be even", x.Plates)
	}
	if x.Plates != 10 {
		t.Errorf("plate count: got %d, want 10", x.Plates)
	}
	if relDifferent(x.Duty, 622, dutyCheckTolerance) {
		t.Errorf("duty: got %g kW, want 622 kW within 1%%", x.Duty)
	}
	if absDifferent(x.Effectiveness, 0.4444, 1e-3) {
		t.Errorf("effectiveness: got %g, want 0.4444", x.Effectiveness)
	}
	if absDifferent(x.NTU, 0.751, 1e-3) {
		t.Errorf("NTU: got %g, want 0.751", x.NTU)
	}
	if x.InstalledArea < x.Area || x.Oversizing < 1 {
		t.Errorf("installed area %g m² below required %g m²", x.InstalledArea, x.Area)
	}
}

func TestDesignPlateExchangerLimits(t *testing.T) {
	cfg := testExchangerConfig()
	// Above the thermodynamic maximum Cmin·(Th,in - Tc,in).
	if _, err := DesignPlateExchanger(cfg, 1500); err == nil {
		t.Fatal("expected thermodynamic-limit error")
	}
	// Feasible but beyond every catalog frame.
	if _, err := DesignPlateExchanger(cfg, 1200); err == nil {
		t.Fatal("expected no-catalog-frame error")
	}
}

// Channel pressure drop for the design flows must land in the typical
// plate-exchanger band and grow with flow.
func TestPlateChannelPressureDrop(t *testing.T) {
	hot := PlateChannelPressureDrop(26.8, 10)
	if hot < 5e3 || hot > 100e3 {
		t.Errorf("hot-side drop %g Pa outside the typical 5-100 kPa band", hot)
	}
	cold := PlateChannelPressureDrop(22.333, 10)
	if cold >= hot {
		t.Errorf("cold-side drop %g Pa should be below hot-side %g Pa at lower flow", cold, hot)
	}
	if PlateChannelPressureDrop(2*26.8, 10) <= hot {
		t.Error("pressure drop must increase with flow")
	}
}

// A shell-and-tube alternative at U ≈ 1000 W/(m²·K) needs several times
// the plate area, which is the reason a plate unit is selected.
func TestDesignShellTube(t *testing.T) {
	cfg := testExchangerConfig()
	st, err := DesignShellTube(cfg, 622, 1000)
	if err != nil {
		t.Fatal(err)
	}
	x, err := DesignPlateExchanger(cfg, 622)
	if err != nil {
		t.Fatal(err)
	}
	if st.Area <= 2*x.Area {
		t.Errorf("shell-and-tube area %g m² should far exceed plate area %g m²", st.Area, x.Area)
	}
	wantTubes := int(st.Area/0.08) + 1
	if st.Tubes < wantTubes-1 || st.Tubes > wantTubes {
		t.Errorf("tube count: got %d for %g m²", st.Tubes, st.Area)
	}
	if _, err := DesignShellTube(ExchangerConfig{HotIn: 40, HotOut: 30, ColdIn: 35, ColdOut: 45}, 100, 1000); err == nil {
		t.Error("expected temperature-cross error")
	}
}

func TestDesignExchangerStage(t *testing.T) {
	s := &System{}
	if err := AnalyzeSources(testCompressors(), testScenarios(), testDesign())(s); err != nil {
		t.Fatal(err)
	}
	if err := DesignExchanger(testExchangerConfig())(s); err != nil {
		t.Fatal(err)
	}
	if s.Exchanger == nil {
		t.Fatal("exchanger design not recorded")
	}
	if s.Exchanger.TargetDuty != s.Sources.Design.ThermalPower {
		t.Errorf("target duty %g kW is not the design power %g kW",
			s.Exchanger.TargetDuty, s.Sources.Design.ThermalPower)
	}
}

func TestDesignExchangerRequiresSources(t *testing.T) {
	if err := DesignExchanger(testExchangerConfig())(&System{}); err == nil {
		t.Fatal("expected missing-sources error")
	}
}
