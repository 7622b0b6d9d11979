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

// dutyTolerance is the maximum relative disagreement accepted between
// the designed duty and the target duty.
const dutyTolerance = 0.01

// PlateModel describes a commercial gasketed plate heat exchanger
// line.
type PlateModel struct {
	Manufacturer string
	Model        string
	MaxDuty      float64 `desc:"Maximum heat duty" units:"kW"`
	PlateArea    float64 `desc:"Area per plate" units:"m²"`
	MaxPlates    int
	TypicalU     float64 `desc:"Typical overall coefficient" units:"W/(m²·K)"`
	MaxPressure  float64 `units:"bar"`
	MaxTemp      float64 `units:"°C"`
	Material     string
}

// DefaultPlateCatalog lists the commercial units considered by the
// exchanger stage when no catalog is configured.
var DefaultPlateCatalog = []PlateModel{
	{Manufacturer: "Alfa Laval", Model: "CB30", MaxDuty: 500, PlateArea: 0.3, MaxPlates: 80, TypicalU: 4200, MaxPressure: 25, MaxTemp: 180, Material: "SS316"},
	{Manufacturer: "APV", Model: "R55", MaxDuty: 800, PlateArea: 0.55, MaxPlates: 90, TypicalU: 4300, MaxPressure: 20, MaxTemp: 150, Material: "SS316"},
	{Manufacturer: "Alfa Laval", Model: "CB60", MaxDuty: 1000, PlateArea: 0.6, MaxPlates: 100, TypicalU: 4500, MaxPressure: 25, MaxTemp: 180, Material: "SS316"},
}

// ExchangerConfig holds the inputs to the heat exchanger design stage.
type ExchangerConfig struct {
	TargetDuty float64 `desc:"Required duty; 0 means use the design thermal power" units:"kW"`
	HotIn      float64 `desc:"Hot side inlet temperature" units:"°C"`
	HotOut     float64 `desc:"Hot side outlet temperature" units:"°C"`
	ColdIn     float64 `desc:"Cold side inlet temperature" units:"°C"`
	ColdOut    float64 `desc:"Cold side outlet temperature" units:"°C"`
	HotFlow    float64 `desc:"Hot side flow" units:"m³/h"`
	ColdFlow   float64 `desc:"Cold side flow" units:"m³/h"`
	Catalog    []PlateModel
}

// ExchangerDesign holds the results of the heat exchanger design stage.
type ExchangerDesign struct {
	Model         PlateModel
	Duty          float64 `desc:"Design duty" units:"kW"`
	TargetDuty    float64 `units:"kW"`
	LMTD          float64 `units:"K"`
	Area          float64 `desc:"Required heat-transfer area" units:"m²"`
	InstalledArea float64 `desc:"Area of the selected plate pack" units:"m²"`
	Plates        int
	U             float64 `units:"W/(m²·K)"`
	NTU           float64
	CRatio        float64 `desc:"Cmin/Cmax"`
	Effectiveness float64
	Oversizing    float64 `desc:"Installed over required area"`
	HotSideDrop   float64 `desc:"Estimated hot-side pressure drop" units:"Pa"`
	ColdSideDrop  float64 `desc:"Estimated cold-side pressure drop" units:"Pa"`
}

// LMTDCounterflow is the log-mean temperature difference [K] of a
// counterflow exchanger:
//	LMTD = (ΔT₁ - ΔT₂)/ln(ΔT₁/ΔT₂)
// with ΔT₁ = T_hot,in - T_cold,out and ΔT₂ = T_hot,out - T_cold,in.
// Both terminal differences must be positive.
func LMTDCounterflow(hotIn, hotOut, coldIn, coldOut float64) (float64, error) {
	dT1 := hotIn - coldOut
	dT2 := hotOut - coldIn
	if dT1 <= 0 || dT2 <= 0 {
		return 0, fmt.Errorf("heatrec: invalid temperature arrangement for LMTD: ΔT₁=%.2f K, ΔT₂=%.2f K", dT1, dT2)
	}
	if math.Abs(dT1-dT2) < 0.01 {
		return dT1, nil
	}
	return (dT1 - dT2) / math.Log(dT1/dT2), nil
}

// RequiredArea inverts Q = U·A·LMTD for the heat transfer area [m²].
func RequiredArea(q, u, lmtd float64) float64 {
	return q / (u * lmtd)
}

// EffectivenessNTU is the counterflow effectiveness
//	ε = (1 - exp[-NTU(1-Cr)])/(1 - Cr·exp[-NTU(1-Cr)])
// degenerating to ε = NTU/(1+NTU) when the capacity rates are equal.
func EffectivenessNTU(ntu, cRatio float64) float64 {
	if math.Abs(cRatio-1) < 1e-6 {
		return ntu / (1 + ntu)
	}
	e := math.Exp(-ntu * (1 - cRatio))
	return (1 - e) / (1 - cRatio*e)
}

// NTUFromEffectiveness solves the counterflow ε-NTU relation for NTU.
// The effectiveness is strictly increasing in NTU, so the solution is
// bracketed by doubling and then found by bisection; both phases are
// bounded and non-convergence is reported as an error.
func NTUFromEffectiveness(epsilon, cRatio float64) (float64, error) {
	const (
		maxIter = 100
		tol     = 1e-9
	)
	if epsilon <= 0 || epsilon >= 1 {
		return 0, fmt.Errorf("heatrec: effectiveness %.3f outside (0, 1)", epsilon)
	}
	if math.Abs(cRatio-1) < 1e-6 {
		return epsilon / (1 - epsilon), nil
	}
	lo, hi := 0.0, 1.0
	for EffectivenessNTU(hi, cRatio) < epsilon {
		lo, hi = hi, hi*2
		if hi > 1e6 {
			return 0, fmt.Errorf("heatrec: effectiveness %.4f unreachable at Cr=%.3f", epsilon, cRatio)
		}
	}
	for i := 0; i < maxIter; i++ {
		mid := (lo + hi) / 2
		err := EffectivenessNTU(mid, cRatio) - epsilon
		if math.Abs(err) < tol {
			return mid, nil
		}
		if err < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0, fmt.Errorf("heatrec: ε-NTU inversion did not converge within %d iterations (ε=%.3f, Cr=%.3f)", maxIter, epsilon, cRatio)
}

// PlateChannelPressureDrop estimates the pressure drop [Pa] of flow
// [m³/h] distributed across the channels of a plate pack: channel
// friction with the Blasius factor for turbulent flow plus inlet and
// outlet port losses. Typical results are 20-100 kPa depending on size
// and flow.
func PlateChannelPressureDrop(flow float64, plates int) float64 {
	const (
		plateSpacing = 0.003 // m
		portDiameter = 0.15  // m
		plateLength  = 1.0   // m
	)
	q := flow / 3600 // m³/s
	channelArea := plateSpacing * 0.5
	v := q / (channelArea * float64(plates) / 4)

	re := ReynoldsNumber(v, 2*plateSpacing)
	var f float64
	if re < 2000 {
		f = 64 / re
	} else {
		f = 0.316 / math.Pow(re, 0.25)
	}
	dP := f * (plateLength / (2 * plateSpacing)) * (WaterRho * v * v / 2)

	portV := FlowVelocity(q, portDiameter)
	dPPorts := 0.5 * WaterRho * portV * portV
	return dP + 2*dPPorts
}

// ShellTubeEstimate is a first-pass shell-and-tube rating used to
// compare against the plate design.
type ShellTubeEstimate struct {
	Area          float64 `desc:"Required heat-transfer area" units:"m²"`
	Tubes         int     `desc:"Estimated tube count (25 mm OD, 1 m)"`
	U             float64 `units:"W/(m²·K)"`
	NTU           float64
	Effectiveness float64
}

// DesignShellTube rates a shell-and-tube alternative for the same duty
// [kW]. The lower overall coefficient of a tube bundle makes the area
// several times that of a plate pack, which is why the plate unit is
// carried into the design.
func DesignShellTube(cfg ExchangerConfig, targetDuty, u float64) (*ShellTubeEstimate, error) {
	lmtd, err := LMTDCounterflow(cfg.HotIn, cfg.HotOut, cfg.ColdIn, cfg.ColdOut)
	if err != nil {
		return nil, err
	}
	q := targetDuty * 1000
	cHot := MassFlow(cfg.HotFlow) * WaterCp
	cCold := MassFlow(cfg.ColdFlow) * WaterCp
	cMin := math.Min(cHot, cCold)
	if cMin <= 0 {
		return nil, fmt.Errorf("heatrec: exchanger flows must be positive")
	}

	const tubeArea = 0.08 // m² per tube
	area := RequiredArea(q, u, lmtd)
	return &ShellTubeEstimate{
		Area:          area,
		Tubes:         int(math.Ceil(area / tubeArea)),
		U:             u,
		NTU:           u * area / cMin,
		Effectiveness: q / (cMin * (cfg.HotIn - cfg.ColdIn)),
	}, nil
}

// OverallU combines film coefficients, fouling resistances, and the
// wall into an overall heat transfer coefficient [W/(m²·K)]:
//	1/U = 1/h_hot + R_f,hot + t/k + R_f,cold + 1/h_cold
func OverallU(hHot, hCold, foulingHot, foulingCold, wallThickness, wallK float64) float64 {
	return 1 / (1/hHot + foulingHot + wallThickness/wallK + foulingCold + 1/hCold)
}

// DesignPlateExchanger sizes a plate exchanger for the given duty
// [kW] and selects a commercial unit from the catalog. The resulting
// ε-NTU duty must agree with the target within 1%.
func DesignPlateExchanger(cfg ExchangerConfig, targetDuty float64) (*ExchangerDesign, error) {
	catalog := cfg.Catalog
	if len(catalog) == 0 {
		catalog = DefaultPlateCatalog
	}

	lmtd, err := LMTDCounterflow(cfg.HotIn, cfg.HotOut, cfg.ColdIn, cfg.ColdOut)
	if err != nil {
		return nil, err
	}

	q := targetDuty * 1000 // W
	cHot := MassFlow(cfg.HotFlow) * WaterCp
	cCold := MassFlow(cfg.ColdFlow) * WaterCp
	cMin := math.Min(cHot, cCold)
	cMax := math.Max(cHot, cCold)
	if cMin <= 0 {
		return nil, fmt.Errorf("heatrec: exchanger flows must be positive")
	}
	cRatio := cMin / cMax

	qMax := cMin * (cfg.HotIn - cfg.ColdIn)
	epsilon := q / qMax
	if epsilon >= 1 {
		return nil, fmt.Errorf("heatrec: duty %.0f kW exceeds the thermodynamic maximum %.0f kW", targetDuty, qMax/1000)
	}

	// Size against each catalog unit in turn; they are ordered by
	// capacity so the first fit is the smallest adequate frame.
	for _, m := range catalog {
		if targetDuty > m.MaxDuty {
			continue
		}
		area := RequiredArea(q, m.TypicalU, lmtd)
		plates := int(math.Ceil(area / m.PlateArea))
		if plates%2 != 0 { // plates work in pairs
			plates++
		}
		if plates > m.MaxPlates {
			continue
		}

		ntu := m.TypicalU * area / cMin
		// Cross-check the rating: the ε-NTU duty of the sized area
		// must reproduce the target within tolerance.
		qCheck := EffectivenessNTU(ntu, cRatio) * qMax
		if relDiff(qCheck, q) > dutyTolerance {
			return nil, fmt.Errorf("heatrec: exchanger %s: ε-NTU duty %.1f kW disagrees with target %.1f kW by more than %.0f%%",
				m.Model, qCheck/1000, targetDuty, dutyTolerance*100)
		}

		installed := float64(plates) * m.PlateArea
		return &ExchangerDesign{
			Model:         m,
			Duty:          qCheck / 1000,
			TargetDuty:    targetDuty,
			LMTD:          lmtd,
			Area:          area,
			InstalledArea: installed,
			Plates:        plates,
			U:             m.TypicalU,
			NTU:           ntu,
			CRatio:        cRatio,
			Effectiveness: epsilon,
			Oversizing:    installed / area,
			HotSideDrop:   PlateChannelPressureDrop(cfg.HotFlow, plates),
			ColdSideDrop:  PlateChannelPressureDrop(cfg.ColdFlow, plates),
		}, nil
	}
	return nil, fmt.Errorf("heatrec: no catalog plate exchanger covers %.0f kW", targetDuty)
}

// DesignExchanger returns a stage that designs the recovery heat
// exchanger for the design thermal power (or cfg.TargetDuty when set).
func DesignExchanger(cfg ExchangerConfig) SystemManipulator {
	return func(s *System) error {
		if s.Sources == nil {
			return fmt.Errorf("heatrec: exchanger stage requires the heat-source analysis")
		}
		target := cfg.TargetDuty
		if target == 0 {
			target = s.Sources.Design.ThermalPower
		}
		x, err := DesignPlateExchanger(cfg, target)
		if err != nil {
			return err
		}
		s.Exchanger = x
		return nil
	}
}
