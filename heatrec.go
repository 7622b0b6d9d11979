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

// Package heatrec implements a design calculation pipeline for industrial
// compressor heat-recovery systems: heat-source analysis, piping network
// sizing, circulation pump selection, thermal storage sizing, plate
// heat-exchanger design, and system integration with an energy balance
// and a discounted-cash-flow financial summary.
//
// The calculation is deterministic and single-pass. Each stage consumes
// the numeric outputs of the stages before it; there is no shared mutable
// state beyond the System value the stages are composed over, and no
// persistence beyond the emitted report files.
package heatrec

// Version gives the version number.
const Version = "0.1.0"

// System holds the state of a heat-recovery design calculation.
// Stage results are written once, by the stage that owns them, and are
// read-only afterwards.
type System struct {
	// InitFuncs are functions to be run (in order) to load and validate
	// the design inputs.
	InitFuncs []SystemManipulator

	// RunFuncs are the design stages, run once each, in order.
	RunFuncs []SystemManipulator

	// CleanupFuncs are functions to be run (in order) after the design
	// stages finish, typically to write output.
	CleanupFuncs []SystemManipulator

	Sources   *SourceAnalysis
	Network   *NetworkDesign
	Pumps     *PumpPlan
	Tank      *TankDesign
	Exchanger *ExchangerDesign
	Balance   *EnergyBalance
	Finance   *FinancialSummary
}

// SystemManipulator is a function that performs one step of a design
// calculation on a System.
type SystemManipulator func(s *System) error

// Init loads the design inputs by running the InitFuncs.
func (s *System) Init() error {
	for _, f := range s.InitFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the design stages. Stages run once each, in the order they
// were added; a stage that cannot satisfy its constraints returns an
// error and the calculation halts.
func (s *System) Run() error {
	for _, f := range s.RunFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup runs the CleanupFuncs.
func (s *System) Cleanup() error {
	for _, f := range s.CleanupFuncs {
		if err := f(s); err != nil {
			return err
		}
	}
	return nil
}

// Stages chains several manipulators into one.
func Stages(stages ...SystemManipulator) SystemManipulator {
	return func(s *System) error {
		for _, f := range stages {
			if err := f(s); err != nil {
				return err
			}
		}
		return nil
	}
}
