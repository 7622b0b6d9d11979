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

// Package heatrecutil loads project files, assembles the design
// pipeline, and writes reports for the heatrec command-line tool.
package heatrecutil

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thermalmodel/heatrec"
)

// Run assembles the full design pipeline for a project and executes it:
// heat-source analysis, piping sizing, pump selection, storage sizing,
// exchanger design, energy balance, and the financial evaluation,
// followed by report output.
//
// OutputFile decides the report format by extension (.xlsx for a
// workbook, anything else for the plain-text report written alongside).
// OutputVariables maps report variable names to expressions over the
// design results.
func Run(log logrus.FieldLogger, project *ProjectSpec, outputFile string, outputVariables map[string]string, plotFile string) (*heatrec.System, error) {
	start := time.Now()
	log.WithFields(logrus.Fields{
		"project":  project.Name,
		"client":   project.Client,
		"location": project.Location,
	}).Info("starting heat recovery design")

	o, err := heatrec.NewOutputter(outputFile, outputVariables, nil)
	if err != nil {
		return nil, err
	}

	s := &heatrec.System{
		InitFuncs: []heatrec.SystemManipulator{
			heatrec.AnalyzeSources(project.Compressors, project.Scenarios, project.Design),
		},
		RunFuncs: []heatrec.SystemManipulator{
			logStage(log, "piping", heatrec.SizeNetwork(project.Network)),
			logStage(log, "pumps", heatrec.SelectPumps(project.Pumps)),
			logStage(log, "storage", heatrec.SizeStorage(project.Storage)),
			logStage(log, "exchanger", heatrec.DesignExchanger(project.Exchanger)),
			logStage(log, "balance", heatrec.CheckBalance(project.Balance)),
			logStage(log, "finance", heatrec.EvaluateFinance(project.Finance)),
		},
		CleanupFuncs: []heatrec.SystemManipulator{
			o.CheckOutputVars(),
			o.Output(os.Stdout),
		},
	}
	if plotFile != "" {
		s.CleanupFuncs = append(s.CleanupFuncs, PlotCurves(plotFile, project))
	}

	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("heatrec: problem loading design inputs: %v", err)
	}
	log.WithFields(logrus.Fields{
		"installedkW": s.Sources.InstalledCapacity,
		"designkW":    s.Sources.Design.ThermalPower,
		"scenarios":   len(s.Sources.Scenarios),
	}).Info("heat sources analyzed")

	if err := s.Run(); err != nil {
		return nil, err
	}
	if err := s.Cleanup(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"paybackmonths": s.Finance.PaybackMonths,
		"npv":           s.Finance.NPV,
		"elapsed":       time.Since(start),
	}).Info("design complete")
	return s, nil
}

// logStage wraps a design stage with a progress log line.
func logStage(log logrus.FieldLogger, name string, stage heatrec.SystemManipulator) heatrec.SystemManipulator {
	return func(s *heatrec.System) error {
		log.WithFields(logrus.Fields{"stage": name}).Info("running design stage")
		return stage(s)
	}
}
