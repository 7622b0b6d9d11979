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

	"gonum.org/v1/gonum/floats"
)

// balanceTolerance is the maximum relative imbalance accepted when
// closing the system energy balance.
const balanceTolerance = 0.01

// BalanceConfig holds the inputs to the energy balance stage.
type BalanceConfig struct {
	PipingLossPerMeter float64 `desc:"Distribution loss of insulated pipe" units:"W/m"`
	OperatingHours     float64 `desc:"Annual operating hours" units:"h/yr"`
}

// EnergyBalance holds the closed system energy balance. The heat
// recovered at the compressor station must reappear as heat delivered
// at the exchanger plus tank and distribution losses.
type EnergyBalance struct {
	Recovered  float64 `desc:"Heat recovered at the compressors" units:"kW"`
	Delivered  float64 `desc:"Heat delivered at the exchanger" units:"kW"`
	TankLoss   float64 `desc:"Accumulator standby loss" units:"kW"`
	PipingLoss float64 `desc:"Distribution loss" units:"kW"`
	PumpPower  float64 `desc:"Electric power drawn by circulation pumps" units:"kW"`

	Closure            float64 `desc:"Relative imbalance |in - out|/in"`
	RecoveryEfficiency float64 `desc:"Delivered over recovered"`

	AnnualRecovered float64 `desc:"Annual recovered heat" units:"MWh/yr"`
	AnnualDelivered float64 `desc:"Annual delivered heat" units:"MWh/yr"`
	AnnualPumping   float64 `desc:"Annual pumping electricity" units:"MWh/yr"`
}

// CheckBalance returns a stage that closes the energy balance across
// the designed system. Heat in is the design recovery; heat out is the
// exchanger duty plus the tank standby loss and the distribution loss.
// A relative imbalance above 1% fails the stage.
func CheckBalance(cfg BalanceConfig) SystemManipulator {
	return func(s *System) error {
		switch {
		case s.Sources == nil:
			return fmt.Errorf("heatrec: balance stage requires the heat-source analysis")
		case s.Network == nil:
			return fmt.Errorf("heatrec: balance stage requires the sized piping network")
		case s.Pumps == nil:
			return fmt.Errorf("heatrec: balance stage requires the pump plan")
		case s.Tank == nil:
			return fmt.Errorf("heatrec: balance stage requires the tank design")
		case s.Exchanger == nil:
			return fmt.Errorf("heatrec: balance stage requires the exchanger design")
		}
		if cfg.OperatingHours <= 0 || cfg.OperatingHours > 8760 {
			return fmt.Errorf("heatrec: operating hours %.0f outside (0, 8760]", cfg.OperatingHours)
		}

		b := &EnergyBalance{
			Recovered:  s.Sources.Design.ThermalPower,
			TankLoss:   s.Tank.HeatLoss / 1000,
			PipingLoss: cfg.PipingLossPerMeter * s.Network.TotalLength / 1000,
			PumpPower:  s.Pumps.TotalPower,
		}
		b.Delivered = b.Recovered - b.TankLoss - b.PipingLoss

		// Reconstruct the input side from the exchanger's rated duty.
		// Disagreement means the exchanger cannot absorb what the loop
		// delivers (heat is dumped) or is oversized for it.
		out := floats.Sum([]float64{s.Exchanger.Duty, b.TankLoss, b.PipingLoss})
		b.Closure = relDiff(out, b.Recovered)
		if b.Closure > balanceTolerance {
			return fmt.Errorf("heatrec: energy balance does not close: in %.1f kW, out %.1f kW (%.2f%% apart)",
				b.Recovered, out, b.Closure*100)
		}

		b.RecoveryEfficiency = b.Delivered / b.Recovered
		b.AnnualRecovered = b.Recovered * cfg.OperatingHours / 1000
		b.AnnualDelivered = b.Delivered * cfg.OperatingHours / 1000
		b.AnnualPumping = b.PumpPower * cfg.OperatingHours / 1000

		s.Balance = b
		return nil
	}
}
