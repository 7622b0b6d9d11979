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

// PumpSpec describes a candidate circulation pump from a manufacturer
// catalog.
type PumpSpec struct {
	Model        string
	Manufacturer string
	RatedFlow    float64 `desc:"Flow at rated point" units:"m³/h"`
	RatedHead    float64 `desc:"Head at rated point" units:"m"`
	RatedPower   float64 `desc:"Rated motor power" units:"kW"`
	Efficiency   float64 `desc:"Efficiency at rated point" units:"%"`
	MaxFlow      float64 `desc:"End-of-curve flow" units:"m³/h"`
	ShutoffHead  float64 `desc:"Head at zero flow" units:"m"`
	NPSHRequired float64 `desc:"NPSH required at rated flow" units:"m"`
	Speed        float64 `desc:"Rotational speed" units:"rpm"`
	Price        float64 `desc:"Catalog price" units:"CLP"`
}

// curveCoefficient is the a in the quadratic pump-curve model
// H(Q) = H₀ - a·Q².
func (p PumpSpec) curveCoefficient() float64 {
	return (p.ShutoffHead - p.RatedHead) / (p.RatedFlow * p.RatedFlow)
}

// Head evaluates the pump curve at flow q [m³/h].
func (p PumpSpec) Head(q float64) float64 {
	return p.ShutoffHead - p.curveCoefficient()*q*q
}

// SuctionConditions describe the pump inlet for NPSH evaluation.
type SuctionConditions struct {
	StaticHead   float64 `desc:"Liquid level above pump centerline (negative if below)" units:"m"`
	FrictionLoss float64 `desc:"Suction line friction loss" units:"m"`
}

// NPSHAvailable calculates the net positive suction head available:
//	NPSHa = (P_atm - P_vapor)/(ρ·g) + H_static - H_friction
func NPSHAvailable(sc SuctionConditions) float64 {
	return (AtmPressure-WaterVaporPressure)/(WaterRho*Gravity) + sc.StaticHead - sc.FrictionLoss
}

// TotalDynamicHead sums the head components a pump must overcome:
// TDH = H_static + H_friction + H_minor + H_equipment.
func TotalDynamicHead(static, friction, minor, equipment float64) float64 {
	return static + friction + minor + equipment
}

// SystemK derives the system resistance coefficient from the design
// point of the system curve H(Q) = H_static + K·Q²:
// K = (H_design - H_static)/Q_design².
func SystemK(designFlow, designHead, staticHead float64) float64 {
	return (designHead - staticHead) / (designFlow * designFlow)
}

// SystemHead evaluates the system curve at flow q [m³/h].
func SystemHead(q, staticHead, k float64) float64 {
	return staticHead + k*q*q
}

// OperatingPoint finds the intersection of a pump curve with the system
// curve. From H₀ - a·Q² = H_static + K·Q²:
//	Q² = (H₀ - H_static)/(a + K)
// It returns an error when the static head exceeds the pump's shutoff
// head, in which case the curves do not intersect.
func OperatingPoint(p PumpSpec, staticHead, k float64) (q, h float64, err error) {
	a := p.curveCoefficient()
	q2 := (p.ShutoffHead - staticHead) / (a + k)
	if q2 < 0 {
		return 0, 0, fmt.Errorf("heatrec: pump %s: static head %.1f m exceeds shutoff head %.1f m, curves do not intersect",
			p.Model, staticHead, p.ShutoffHead)
	}
	q = math.Sqrt(q2)
	return q, SystemHead(q, staticHead, k), nil
}

// PumpPower holds the power breakdown at an operating point.
// Hydraulic power is ρ·g·Q·H; shaft power divides by pump efficiency;
// motor power assumes a 90% motor.
type PumpPower struct {
	Hydraulic float64 `units:"kW"`
	Shaft     float64 `units:"kW"`
	Motor     float64 `units:"kW"`
}

const motorEfficiency = 0.90

// PowerAt calculates the pump power breakdown at flow q [m³/h] and head
// h [m].
func (p PumpSpec) PowerAt(q, h float64) PumpPower {
	hydraulic := WaterRho * Gravity * (q / 3600) * h / 1000 // kW
	shaft := hydraulic / (p.Efficiency / 100)
	return PumpPower{
		Hydraulic: hydraulic,
		Shaft:     shaft,
		Motor:     shaft / motorEfficiency,
	}
}

// PumpSelection records an accepted pump for a group of branches.
type PumpSelection struct {
	Pump          PumpSpec
	Branches      []string
	Quantity      int
	RequiredFlow  float64 `desc:"Flow requirement per pump" units:"m³/h"`
	RequiredHead  float64 `desc:"Head requirement with safety factor" units:"m"`
	OperatingFlow float64 `desc:"Flow at operating point" units:"m³/h"`
	OperatingHead float64 `desc:"Head at operating point" units:"m"`
	NPSHMargin    float64 `desc:"NPSH available minus required" units:"m"`
	Power         PumpPower
}

// PumpRequirement is one duty the pump stage must cover.
type PumpRequirement struct {
	Branches []string
	Flow     float64 `desc:"Required flow" units:"m³/h"`
	Quantity int
}

// PumpConfig holds the inputs to the pump selection stage.
type PumpConfig struct {
	StaticHead       float64 `desc:"Elevation difference pump to header" units:"m"`
	EquipmentHead    float64 `desc:"Head loss across compressor exchanger" units:"m"`
	SafetyFactor     float64 `desc:"Multiplier on TDH, e.g. 1.2"`
	Suction          SuctionConditions
	NPSHSafetyMargin float64 `desc:"Minimum NPSH margin beyond NPSHr" units:"m"`
	Requirements     []PumpRequirement
	Catalog          []PumpSpec
}

// PumpPlan holds the results of the pump selection stage.
type PumpPlan struct {
	Selections    []PumpSelection
	TDH           float64 `desc:"Design total dynamic head incl. safety factor" units:"m"`
	SystemK       float64 `desc:"System resistance coefficient" units:"h²/m⁵"`
	NPSHAvailable float64 `units:"m"`
	TotalPower    float64 `desc:"Sum of motor powers for active pumps" units:"kW"`
}

// SelectPump picks the first catalog pump that meets a flow/head
// requirement with a strictly positive NPSH margin. A selection whose
// margin is not positive is rejected; if no catalog pump qualifies an
// error describes the closest miss.
func SelectPump(req PumpRequirement, head float64, staticHead, k, npshAvailable, npshSafety float64, catalog []PumpSpec) (PumpSelection, error) {
	var firstErr error
	for _, p := range catalog {
		if p.RatedFlow < req.Flow || p.Head(req.Flow) < head {
			continue
		}
		q, h, err := OperatingPoint(p, staticHead, k)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		margin := npshAvailable - p.NPSHRequired
		if margin <= npshSafety {
			// Cavitation risk: margin must be strictly positive and
			// clear the safety allowance.
			if firstErr == nil {
				firstErr = fmt.Errorf("heatrec: pump %s rejected: NPSH margin %.2f m (available %.2f m, required %.2f m)",
					p.Model, margin, npshAvailable, p.NPSHRequired)
			}
			continue
		}
		return PumpSelection{
			Pump:          p,
			Branches:      req.Branches,
			Quantity:      req.Quantity,
			RequiredFlow:  req.Flow,
			RequiredHead:  head,
			OperatingFlow: q,
			OperatingHead: h,
			NPSHMargin:    margin,
			Power:         p.PowerAt(q, h),
		}, nil
	}
	if firstErr != nil {
		return PumpSelection{}, firstErr
	}
	return PumpSelection{}, fmt.Errorf("heatrec: no catalog pump covers %.2f m³/h at %.1f m head", req.Flow, head)
}

// SelectPumps returns a stage that selects a circulation pump for each
// requirement group against the sized network.
func SelectPumps(cfg PumpConfig) SystemManipulator {
	return func(s *System) error {
		if s.Network == nil {
			return fmt.Errorf("heatrec: pump stage requires the sized piping network")
		}
		if cfg.SafetyFactor < 1 {
			return fmt.Errorf("heatrec: pump safety factor %.2f must be ≥ 1", cfg.SafetyFactor)
		}

		frictionHead := s.Network.TotalHead
		tdh := TotalDynamicHead(cfg.StaticHead, frictionHead, 0, cfg.EquipmentHead) * cfg.SafetyFactor

		plan := &PumpPlan{
			TDH:           tdh,
			NPSHAvailable: NPSHAvailable(cfg.Suction),
		}

		for _, req := range cfg.Requirements {
			if req.Flow <= 0 || req.Quantity <= 0 {
				return fmt.Errorf("heatrec: pump requirement for %v has non-positive flow or quantity", req.Branches)
			}
			k := SystemK(req.Flow, tdh, cfg.StaticHead)
			plan.SystemK = k
			sel, err := SelectPump(req, tdh, cfg.StaticHead, k, plan.NPSHAvailable, cfg.NPSHSafetyMargin, cfg.Catalog)
			if err != nil {
				return err
			}
			plan.Selections = append(plan.Selections, sel)
			plan.TotalPower += sel.Power.Motor * float64(req.Quantity)
		}

		s.Pumps = plan
		return nil
	}
}

// CombinedSeriesHead gives the total head [m] of pumps operating in
// series at a common flow: heads add.
func CombinedSeriesHead(pumps []PumpSpec, q float64) float64 {
	var h float64
	for _, p := range pumps {
		h += p.Head(q)
	}
	return h
}

// CombinedParallelFlow gives the total flow [m³/h] of pumps operating in
// parallel at a common head: flows add. Pumps whose shutoff head is
// below the operating head contribute nothing.
func CombinedParallelFlow(pumps []PumpSpec, h float64) float64 {
	var q float64
	for _, p := range pumps {
		if h > p.ShutoffHead {
			continue
		}
		q += math.Sqrt((p.ShutoffHead - h) / p.curveCoefficient())
	}
	return q
}
