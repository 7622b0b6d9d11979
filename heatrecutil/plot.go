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

package heatrecutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thermalmodel/heatrec"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotCurves returns a stage that renders two diagnostic figures for a
// completed design: the pump curve against the system curve for each
// selected pump, and the recoverable thermal power by operating
// scenario. fileName is used as a base path; "_pump" and "_scenarios"
// are inserted before the extension.
func PlotCurves(fileName string, project *ProjectSpec) heatrec.SystemManipulator {
	return func(s *heatrec.System) error {
		if s.Pumps == nil || s.Sources == nil {
			return fmt.Errorf("heatrec: plotting requires completed pump and source stages")
		}
		if err := plotPumpCurves(plotPath(fileName, "_pump"), s, project); err != nil {
			return err
		}
		return plotScenarios(plotPath(fileName, "_scenarios"), s)
	}
}

func plotPath(fileName, suffix string) string {
	ext := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, ext) + suffix + ext
}

// plotPumpCurves draws H(Q) for each selected pump together with the
// system curve and marks the operating points.
func plotPumpCurves(fileName string, s *heatrec.System, project *ProjectSpec) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Pump and system curves"
	p.X.Label.Text = "Flow (m³/h)"
	p.Y.Label.Text = "Head (m)"

	const n = 50
	var plots []interface{}
	var maxFlow float64
	for _, sel := range s.Pumps.Selections {
		if sel.Pump.MaxFlow > maxFlow {
			maxFlow = sel.Pump.MaxFlow
		}
	}
	if maxFlow == 0 {
		return fmt.Errorf("heatrec: no pump selections to plot")
	}

	for _, sel := range s.Pumps.Selections {
		xy := make(plotter.XYs, n)
		for i := 0; i < n; i++ {
			q := sel.Pump.MaxFlow * float64(i) / float64(n-1)
			xy[i].X = q
			xy[i].Y = sel.Pump.Head(q)
		}
		plots = append(plots, sel.Pump.Model, xy)
	}

	system := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		q := maxFlow * float64(i) / float64(n-1)
		system[i].X = q
		system[i].Y = heatrec.SystemHead(q, project.Pumps.StaticHead, s.Pumps.SystemK)
	}
	plots = append(plots, "system", system)

	operating := make(plotter.XYs, len(s.Pumps.Selections))
	for i, sel := range s.Pumps.Selections {
		operating[i].X = sel.OperatingFlow
		operating[i].Y = sel.OperatingHead
	}

	if err := plotutil.AddLines(p, plots...); err != nil {
		return err
	}
	if err := plotutil.AddScatters(p, "operating", operating); err != nil {
		return err
	}
	p.Y.Min = 0
	p.X.Min = 0
	return p.Save(6*vg.Inch, 4*vg.Inch, fileName)
}

// plotScenarios draws the recoverable thermal power of each operating
// scenario as a bar chart, with the design power as a horizontal line.
func plotScenarios(fileName string, s *heatrec.System) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Recoverable power by scenario"
	p.X.Label.Text = "Scenario"
	p.Y.Label.Text = "Thermal power (kW)"

	powers := make(plotter.Values, len(s.Sources.Scenarios))
	labels := make([]string, len(s.Sources.Scenarios))
	for i, sc := range s.Sources.Scenarios {
		powers[i] = sc.ThermalPower
		labels[i] = fmt.Sprintf("%d", sc.Scenario)
	}

	bars, err := plotter.NewBarChart(powers, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)

	design := plotter.XYs{
		{X: -0.5, Y: s.Sources.Design.ThermalPower},
		{X: float64(len(labels)) - 0.5, Y: s.Sources.Design.ThermalPower},
	}
	line, err := plotter.NewLine(design)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(1)
	p.Add(line)
	p.Legend.Add("design power", line)

	return p.Save(6*vg.Inch, 4*vg.Inch, fileName)
}
