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

	"github.com/ctessum/unit"
	"github.com/ctessum/unit/badunit"
)

// Dimensions for project cash flows. Keeping money in the unit system
// catches price-times-quantity mistakes at runtime instead of letting
// them flow silently into the NPV.
var (
	pesoDim = unit.NewDimension("CLP")

	currency = unit.Dimensions{pesoDim: 1}

	currencyPerJoule = unit.Dimensions{
		pesoDim:        1,
		unit.MassDim:   -1,
		unit.LengthDim: -2,
		unit.TimeDim:   2}

	currencyPerMeter3 = unit.Dimensions{
		pesoDim:        1,
		unit.LengthDim: -3}
)

// pesos wraps an amount of Chilean pesos.
func pesos(v float64) *unit.Unit { return unit.New(v, currency) }

// pesosPerKWh converts an energy tariff [CLP/kWh] to SI pricing.
func pesosPerKWh(v float64) *unit.Unit {
	return unit.Div(pesos(v), badunit.KiloWattHour(1))
}

// CapexItem is one line of the capital cost estimate.
type CapexItem struct {
	Description string
	Cost        float64 `units:"CLP"`
}

// FinanceConfig holds the inputs to the financial evaluation stage.
type FinanceConfig struct {
	Capex []CapexItem

	ElectricityPrice float64 `desc:"Industrial electricity tariff" units:"CLP/kWh"`
	GasPrice         float64 `desc:"Natural gas price" units:"CLP/m³"`
	GasHeatingValue  float64 `desc:"Lower heating value of natural gas" units:"kWh/m³"`
	BoilerEfficiency float64 `desc:"Efficiency of the displaced gas boiler"`
	ProcessHeatValue float64 `desc:"Alternative valuation of delivered heat" units:"CLP/kWh"`

	WaterTreatment  float64 `desc:"Annual water treatment cost" units:"CLP/yr"`
	MaintenanceRate float64 `desc:"Annual maintenance as a fraction of CAPEX"`

	DiscountRate float64 `desc:"Discount rate for NPV"`
	HorizonYears int     `desc:"Evaluation horizon" units:"yr"`
	CO2Factor    float64 `desc:"Combustion emission factor of natural gas" units:"kg CO₂/m³"`
}

// FinancialSummary holds the results of the financial evaluation stage.
type FinancialSummary struct {
	Capex float64 `desc:"Total capital cost" units:"CLP"`

	GasSaved         float64 `desc:"Avoided natural gas" units:"m³/yr"`
	GasSavings       float64 `desc:"Avoided gas cost" units:"CLP/yr"`
	ProcessHeatValue float64 `desc:"Delivered heat valued as process heat" units:"CLP/yr"`
	AnnualSavings    float64 `desc:"Gross savings carried into the cash flow" units:"CLP/yr"`

	PumpingCost float64 `desc:"Pump electricity" units:"CLP/yr"`
	Maintenance float64 `units:"CLP/yr"`
	Treatment   float64 `units:"CLP/yr"`
	Opex        float64 `desc:"Total operating cost" units:"CLP/yr"`

	NetBenefit    float64 `desc:"Gross savings minus operating cost" units:"CLP/yr"`
	PaybackYears  float64 `units:"yr"`
	PaybackMonths float64 `units:"months"`
	NPV           float64 `desc:"Net present value over the horizon" units:"CLP"`
	IRR           float64 `desc:"Internal rate of return" units:"fraction"`
	CO2Avoided    float64 `desc:"Avoided emissions" units:"t CO₂/yr"`
	Verdict       string
}

// NetPresentValue discounts a level annual benefit over n years against
// an up-front capital cost:
//	NPV = -C + Σ B/(1+r)ᵗ, t = 1..n
func NetPresentValue(capex, annualBenefit, rate float64, years int) float64 {
	npv := -capex
	for t := 1; t <= years; t++ {
		npv += annualBenefit / math.Pow(1+rate, float64(t))
	}
	return npv
}

// InternalRateOfReturn finds the discount rate at which the project NPV
// is zero, by bisection over [0, 10]. For an up-front cost followed by a
// level positive annuity the NPV is monotonic in the rate, so the root
// is unique when it exists.
func InternalRateOfReturn(capex, annualBenefit float64, years int) (float64, error) {
	const (
		maxIter = 200
		tol     = 1e-7
	)
	if capex <= 0 || years <= 0 {
		return 0, fmt.Errorf("heatrec: IRR requires positive capital cost and horizon")
	}
	lo, hi := 0.0, 10.0
	if NetPresentValue(capex, annualBenefit, lo, years) < 0 {
		return 0, fmt.Errorf("heatrec: project never recovers its capital cost within %d years; IRR undefined", years)
	}
	if NetPresentValue(capex, annualBenefit, hi, years) > 0 {
		return 0, fmt.Errorf("heatrec: IRR above %.0f%%; check the cash flows", hi*100)
	}
	for i := 0; i < maxIter; i++ {
		mid := (lo + hi) / 2
		npv := NetPresentValue(capex, annualBenefit, mid, years)
		if math.Abs(npv) < tol*capex || hi-lo < tol {
			return mid, nil
		}
		if npv > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// SimplePayback is the undiscounted recovery time [yr] of the capital
// cost: C/B.
func SimplePayback(capex, annualBenefit float64) (float64, error) {
	if annualBenefit <= 0 {
		return 0, fmt.Errorf("heatrec: non-positive annual benefit %.0f CLP; project never pays back", annualBenefit)
	}
	return capex / annualBenefit, nil
}

// paybackVerdict classifies a simple payback the way an investment
// committee would read it.
func paybackVerdict(years float64) string {
	switch {
	case years < 3:
		return "excellent"
	case years < 5:
		return "good"
	case years < 7:
		return "acceptable"
	default:
		return "marginal"
	}
}

// EvaluateFinance returns a stage that values the recovered heat
// against displaced boiler gas and closes the discounted cash-flow
// analysis. The gas-displacement valuation is carried into the NPV; the
// process-heat valuation is reported alongside for comparison.
func EvaluateFinance(cfg FinanceConfig) SystemManipulator {
	return func(s *System) error {
		if s.Balance == nil {
			return fmt.Errorf("heatrec: finance stage requires the energy balance")
		}
		if cfg.BoilerEfficiency <= 0 || cfg.BoilerEfficiency > 1 {
			return fmt.Errorf("heatrec: boiler efficiency %.2f outside (0, 1]", cfg.BoilerEfficiency)
		}
		if cfg.GasHeatingValue <= 0 {
			return fmt.Errorf("heatrec: gas heating value must be positive")
		}
		if cfg.HorizonYears <= 0 {
			return fmt.Errorf("heatrec: evaluation horizon must be positive")
		}

		f := &FinancialSummary{}
		for _, item := range cfg.Capex {
			if item.Cost < 0 {
				return fmt.Errorf("heatrec: negative capital cost for %q", item.Description)
			}
			f.Capex += item.Cost
		}
		if f.Capex <= 0 {
			return fmt.Errorf("heatrec: total capital cost must be positive")
		}

		deliveredKWh := s.Balance.AnnualDelivered * 1000
		pumpingKWh := s.Balance.AnnualPumping * 1000

		// Displaced boiler fuel: the boiler would have burned
		// Q/η of gas energy to deliver the same heat.
		f.GasSaved = deliveredKWh / cfg.BoilerEfficiency / cfg.GasHeatingValue
		gasSavings := unit.Mul(
			unit.New(cfg.GasPrice, currencyPerMeter3),
			unit.New(f.GasSaved, unit.Meter3))
		f.GasSavings = gasSavings.Value()

		processValue := unit.Mul(pesosPerKWh(cfg.ProcessHeatValue), badunit.KiloWattHour(deliveredKWh))
		f.ProcessHeatValue = processValue.Value()

		// The gas-displacement figure is the one carried forward; the
		// process-heat valuation is reported for comparison only.
		f.AnnualSavings = f.GasSavings

		pumping := unit.Mul(pesosPerKWh(cfg.ElectricityPrice), badunit.KiloWattHour(pumpingKWh))
		f.PumpingCost = pumping.Value()
		f.Maintenance = f.Capex * cfg.MaintenanceRate
		f.Treatment = cfg.WaterTreatment
		f.Opex = unit.Add(unit.Add(pumping, pesos(f.Maintenance)), pesos(f.Treatment)).Value()

		f.NetBenefit = f.AnnualSavings - f.Opex

		payback, err := SimplePayback(f.Capex, f.NetBenefit)
		if err != nil {
			return err
		}
		f.PaybackYears = payback
		f.PaybackMonths = payback * 12
		f.Verdict = paybackVerdict(payback)

		f.NPV = NetPresentValue(f.Capex, f.NetBenefit, cfg.DiscountRate, cfg.HorizonYears)
		f.IRR, err = InternalRateOfReturn(f.Capex, f.NetBenefit, cfg.HorizonYears)
		if err != nil {
			return err
		}

		f.CO2Avoided = f.GasSaved * cfg.CO2Factor / 1000

		s.Finance = f
		return nil
	}
}
