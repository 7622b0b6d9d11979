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
	"io"
	"math"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/tealeg/xlsx"
)

// section is one result block exposed to the output expression engine.
type section struct {
	name string
	data interface{}
}

// sections lists the completed result blocks in report order.
func (s *System) sections() []section {
	var out []section
	if s.Sources != nil {
		out = append(out, section{"Source", s.Sources})
	}
	if s.Network != nil {
		out = append(out, section{"Network", s.Network})
	}
	if s.Pumps != nil {
		out = append(out, section{"Pump", s.Pumps})
	}
	if s.Tank != nil {
		out = append(out, section{"Tank", s.Tank})
	}
	if s.Exchanger != nil {
		out = append(out, section{"Exchanger", s.Exchanger})
	}
	if s.Balance != nil {
		out = append(out, section{"Balance", s.Balance})
	}
	if s.Finance != nil {
		out = append(out, section{"Finance", s.Finance})
	}
	return out
}

// collectNumeric walks the numeric fields of a result struct, prefixing
// each name, and descends one level into nested structs so that values
// such as the design conditions stay addressable.
func collectNumeric(prefix string, v reflect.Value, depth int, visit func(name, desc, units string, val float64)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := v.Field(i)
		sf := t.Field(i)
		name := prefix + sf.Name
		switch f.Kind() {
		case reflect.Float64:
			visit(name, sf.Tag.Get("desc"), sf.Tag.Get("units"), f.Float())
		case reflect.Int:
			visit(name, sf.Tag.Get("desc"), sf.Tag.Get("units"), float64(f.Int()))
		case reflect.Struct:
			if depth > 0 {
				collectNumeric(name, f, depth-1, visit)
			}
		}
	}
}

// Results flattens every numeric result of the completed stages into a
// map keyed by section-prefixed variable names, e.g. TankVolume or
// FinanceNPV. These are the variables available to output expressions.
func (s *System) Results() (map[string]float64, error) {
	secs := s.sections()
	if len(secs) == 0 {
		return nil, fmt.Errorf("heatrec: no results to output; run the design stages first")
	}
	res := make(map[string]float64)
	for _, sec := range secs {
		collectNumeric(sec.name, reflect.ValueOf(sec.data).Elem(), 1, func(name, desc, units string, val float64) {
			res[name] = val
		})
	}
	return res, nil
}

// OutputOptions returns the available output variable names with their
// descriptions and units, sorted for deterministic reporting.
func (s *System) OutputOptions() (names, descriptions, units []string) {
	type entry struct{ name, desc, units string }
	var entries []entry
	for _, sec := range s.sections() {
		collectNumeric(sec.name, reflect.ValueOf(sec.data).Elem(), 1, func(name, desc, units string, val float64) {
			entries = append(entries, entry{name, desc, units})
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	for _, e := range entries {
		names = append(names, e.name)
		descriptions = append(descriptions, e.desc)
		units = append(units, e.units)
	}
	return names, descriptions, units
}

// Outputter evaluates user-defined output expressions over the design
// results and writes them to a file.
//
// outputVariables maps output names to expressions over the model's
// result variables; expressions may reference other output variables
// and the built-in functions.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	modelVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes an Outputter and adds the default output
// functions:
//
// 'exp(x)', 'sqrt(x)', and 'abs(x)' with their usual meanings, and
// 'min(x, y)' and 'max(x, y)' over two arguments.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("heatrec: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("heatrec: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return math.Sqrt(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("heatrec: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
		"min": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("heatrec: got %d arguments for function 'min', but needs 2", len(arg))
			}
			return math.Min(arg[0].(float64), arg[1].(float64)), nil
		},
		"max": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("heatrec: got %d arguments for function 'max', but needs 2", len(arg))
			}
			return math.Max(arg[0].(float64), arg[1].(float64)), nil
		},
	}
	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}

	o := &Outputter{
		fileName:        fileName,
		outputVariables: make(map[string]string, len(outputVariables)),
		outputFunctions: defaultOutputFuncs,
	}
	for k, v := range outputVariables {
		o.outputVariables[k] = v
	}
	err := o.checkForDerivatives()
	return o, err
}

// removeDuplicates returns s with only the first occurrence of each
// string kept.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// checkForDerivatives resolves output variables defined in terms of
// other output variables, substituting the defining expression (in
// parentheses) for each whole-word reference, and collects the unique
// model variables the resolved expressions require.
func (o *Outputter) checkForDerivatives() error {
	o.modelVariables = o.modelVariables[:0]
	for key, val := range o.outputVariables {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(val, o.outputFunctions)
		if err != nil {
			return fmt.Errorf("heatrec: output variable %s: %v", key, err)
		}
		uniqueVars := removeDuplicates(expression.Vars())
		for _, uniqueVar := range uniqueVars {
			def, ok := o.outputVariables[uniqueVar]
			if !ok || def == uniqueVar || uniqueVar == key {
				o.modelVariables = append(o.modelVariables, uniqueVar)
				continue
			}
			// A whole-word match only; TankLoss must not rewrite part of
			// BalanceTankLoss.
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(uniqueVar) + `\b`)
			if err != nil {
				return fmt.Errorf("heatrec: output variable %s: %v", key, err)
			}
			o.outputVariables[key] = re.ReplaceAllString(val, "("+def+")")
			return o.checkForDerivatives()
		}
	}
	o.modelVariables = removeDuplicates(o.modelVariables)
	return nil
}

// checkOutputNames rejects output variable names that are not valid
// expression identifiers.
func checkOutputNames(o map[string]string) error {
	for key := range o {
		ok, err := regexp.MatchString(`^[A-Za-z]\w*$`, key)
		if err != nil {
			panic(err)
		}
		if !ok {
			return fmt.Errorf("heatrec: output variable name '%s' includes unsupported characters", key)
		}
	}
	return nil
}

// CheckOutputVars returns a stage that verifies every model variable the
// output expressions reference exists in the completed results.
func (o *Outputter) CheckOutputVars() SystemManipulator {
	return func(s *System) error {
		if err := checkOutputNames(o.outputVariables); err != nil {
			return err
		}
		results, err := s.Results()
		if err != nil {
			return err
		}
		for _, v := range o.modelVariables {
			if _, ok := results[v]; !ok {
				return fmt.Errorf("heatrec: undefined variable name '%s'", v)
			}
		}
		return nil
	}
}

// Output returns a stage that evaluates the output expressions and
// writes the results. Files ending in .xlsx get a workbook with one
// sheet per design stage plus the evaluated variables; any other
// destination gets the plain-text engineering report on w.
func (o *Outputter) Output(w io.Writer) SystemManipulator {
	return func(s *System) error {
		results, err := s.Results()
		if err != nil {
			return err
		}
		values := make(map[string]float64, len(o.outputVariables))
		params := make(map[string]interface{}, len(results))
		for k, v := range results {
			params[k] = v
		}
		for name, exprStr := range o.outputVariables {
			expression, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, o.outputFunctions)
			if err != nil {
				return fmt.Errorf("heatrec: output variable %s: %v", name, err)
			}
			result, err := expression.Evaluate(params)
			if err != nil {
				return fmt.Errorf("heatrec: output variable %s: %v", name, err)
			}
			v, ok := result.(float64)
			if !ok {
				return fmt.Errorf("heatrec: output variable %s: expression yields %T, want float64", name, result)
			}
			values[name] = v
		}

		if filepath.Ext(o.fileName) == ".xlsx" {
			return s.writeWorkbook(o.fileName, values)
		}
		return WriteReport(w, s, values)
	}
}

// writeWorkbook writes one sheet per completed stage, each listing the
// stage's variables with units and descriptions, plus a sheet with the
// evaluated output expressions.
func (s *System) writeWorkbook(fileName string, values map[string]float64) error {
	file := xlsx.NewFile()
	for _, sec := range s.sections() {
		sheet, err := file.AddSheet(sec.name)
		if err != nil {
			return fmt.Errorf("heatrec: writing %s: %v", fileName, err)
		}
		header := sheet.AddRow()
		for _, h := range []string{"Variable", "Value", "Units", "Description"} {
			header.AddCell().SetString(h)
		}
		type rowData struct {
			name, units, desc string
			val               float64
		}
		var rows []rowData
		collectNumeric(sec.name, reflect.ValueOf(sec.data).Elem(), 1, func(name, desc, units string, val float64) {
			rows = append(rows, rowData{name, units, desc, val})
		})
		sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
		for _, r := range rows {
			row := sheet.AddRow()
			row.AddCell().SetString(r.name)
			row.AddCell().SetFloat(r.val)
			row.AddCell().SetString(r.units)
			row.AddCell().SetString(r.desc)
		}
	}
	if len(values) > 0 {
		sheet, err := file.AddSheet("Output")
		if err != nil {
			return fmt.Errorf("heatrec: writing %s: %v", fileName, err)
		}
		header := sheet.AddRow()
		header.AddCell().SetString("Variable")
		header.AddCell().SetString("Value")
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row := sheet.AddRow()
			row.AddCell().SetString(name)
			row.AddCell().SetFloat(values[name])
		}
	}
	return file.Save(fileName)
}

// WriteReport writes the plain-text engineering summary of a completed
// design, followed by any evaluated output variables.
func WriteReport(w io.Writer, s *System, values map[string]float64) error {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(w, "%s\nCOMPRESSOR HEAT RECOVERY SYSTEM - DESIGN SUMMARY\n%s\n", rule, rule)

	if s.Sources != nil {
		fmt.Fprintf(w, "\nHEAT SOURCES\n")
		fmt.Fprintf(w, "  Compressors:          %d (%d active)\n", len(s.Sources.Compressors), s.Sources.ActiveUnits)
		fmt.Fprintf(w, "  Installed capacity:   %.0f kW\n", s.Sources.InstalledCapacity)
		fmt.Fprintf(w, "  Design power:         %.0f kW at %.1f m³/h\n", s.Sources.Design.ThermalPower, s.Sources.Design.WaterFlow)
	}
	if s.Network != nil {
		fmt.Fprintf(w, "\nPIPING NETWORK\n")
		fmt.Fprintf(w, "  Material:             %s\n", s.Network.Material)
		for _, seg := range s.Network.Segments {
			fmt.Fprintf(w, "  %-8s DN%-3d %5.1f m  %.2f m/s  %.1f kPa\n",
				seg.ID, seg.DN, seg.Length, seg.Velocity, seg.PressureDrop/1000)
		}
		fmt.Fprintf(w, "  %-8s DN%-3d %5.1f m  %.2f m/s  %.1f kPa\n",
			s.Network.Header.ID, s.Network.Header.DN, s.Network.Header.Length,
			s.Network.Header.Velocity, s.Network.Header.PressureDrop/1000)
		fmt.Fprintf(w, "  Worst path:           %s + header, %.1f kPa (%.2f m)\n",
			s.Network.WorstBranch, s.Network.TotalDrop/1000, s.Network.TotalHead)
	}
	if s.Pumps != nil {
		fmt.Fprintf(w, "\nCIRCULATION PUMPS\n")
		fmt.Fprintf(w, "  Design TDH:           %.1f m\n", s.Pumps.TDH)
		fmt.Fprintf(w, "  NPSH available:       %.1f m\n", s.Pumps.NPSHAvailable)
		for _, sel := range s.Pumps.Selections {
			fmt.Fprintf(w, "  %d× %s %s: %.1f m³/h at %.1f m, %.2f kW, NPSH margin %.1f m\n",
				sel.Quantity, sel.Pump.Manufacturer, sel.Pump.Model,
				sel.OperatingFlow, sel.OperatingHead, sel.Power.Motor, sel.NPSHMargin)
		}
		fmt.Fprintf(w, "  Total pump power:     %.2f kW\n", s.Pumps.TotalPower)
	}
	if s.Tank != nil {
		fmt.Fprintf(w, "\nTHERMAL STORAGE\n")
		fmt.Fprintf(w, "  Volume:               %.2f m³ (Ø%.2f m × %.2f m)\n", s.Tank.Volume, s.Tank.Diameter, s.Tank.Height)
		fmt.Fprintf(w, "  Energy capacity:      %.1f MJ\n", s.Tank.EnergyCapacity)
		fmt.Fprintf(w, "  Stratification:       Ri = %.1f (%s)\n", s.Tank.Richardson, s.Tank.Stratification)
		fmt.Fprintf(w, "  Standby loss:         %.0f W\n", s.Tank.HeatLoss)
	}
	if s.Exchanger != nil {
		fmt.Fprintf(w, "\nHEAT EXCHANGER\n")
		fmt.Fprintf(w, "  Unit:                 %s %s, %d plates, %.1f m²\n",
			s.Exchanger.Model.Manufacturer, s.Exchanger.Model.Model, s.Exchanger.Plates, s.Exchanger.InstalledArea)
		fmt.Fprintf(w, "  Duty:                 %.0f kW (LMTD %.1f K, U %.0f W/m²K)\n",
			s.Exchanger.Duty, s.Exchanger.LMTD, s.Exchanger.U)
		fmt.Fprintf(w, "  Effectiveness:        %.1f%% (NTU %.2f)\n", s.Exchanger.Effectiveness*100, s.Exchanger.NTU)
		fmt.Fprintf(w, "  Pressure drop:        %.1f kPa hot side, %.1f kPa cold side\n",
			s.Exchanger.HotSideDrop/1000, s.Exchanger.ColdSideDrop/1000)
	}
	if s.Balance != nil {
		fmt.Fprintf(w, "\nENERGY BALANCE\n")
		fmt.Fprintf(w, "  Recovered:            %.1f kW\n", s.Balance.Recovered)
		fmt.Fprintf(w, "  Delivered:            %.1f kW\n", s.Balance.Delivered)
		fmt.Fprintf(w, "  Losses:               %.1f kW tank, %.1f kW piping\n", s.Balance.TankLoss, s.Balance.PipingLoss)
		fmt.Fprintf(w, "  Closure:              %.2f%%\n", s.Balance.Closure*100)
		fmt.Fprintf(w, "  Recovery efficiency:  %.1f%%\n", s.Balance.RecoveryEfficiency*100)
	}
	if s.Finance != nil {
		fmt.Fprintf(w, "\nFINANCIAL SUMMARY\n")
		fmt.Fprintf(w, "  Capital cost:         $%.0f CLP\n", s.Finance.Capex)
		fmt.Fprintf(w, "  Gas saved:            %.0f m³/yr ($%.0f CLP/yr)\n", s.Finance.GasSaved, s.Finance.GasSavings)
		fmt.Fprintf(w, "  Net annual benefit:   $%.0f CLP/yr\n", s.Finance.NetBenefit)
		fmt.Fprintf(w, "  Simple payback:       %.1f months (%s)\n", s.Finance.PaybackMonths, s.Finance.Verdict)
		fmt.Fprintf(w, "  NPV:                  $%.0f CLP\n", s.Finance.NPV)
		fmt.Fprintf(w, "  IRR:                  %.1f%%\n", s.Finance.IRR*100)
		fmt.Fprintf(w, "  CO₂ avoided:          %.0f t/yr\n", s.Finance.CO2Avoided)
	}

	if s.Pumps != nil && s.Balance != nil {
		writeProcedures(w, s)
	}

	if len(values) > 0 {
		fmt.Fprintf(w, "\nOUTPUT VARIABLES\n")
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-24s %g\n", name, values[name])
		}
	}
	fmt.Fprintf(w, "\n%s\n", rule)
	return nil
}

// writeProcedures writes the operating procedures for a completed
// design: the startup sequence, normal operation, and shutdown.
func writeProcedures(w io.Writer, s *System) {
	var pumps int
	for _, sel := range s.Pumps.Selections {
		pumps += sel.Quantity
	}

	fmt.Fprintf(w, "\nOPERATING PROCEDURES\n")
	fmt.Fprintf(w, " Startup:\n")
	for i, step := range []string{
		"Verify all isolation valves are in the correct position",
		"Check thermal storage tank level (should be >80%)",
		"Start the circulation pump for the first active compressor",
		"Verify flow and pressure readings are normal",
		fmt.Sprintf("Start the remaining pumps (%d total) as compressors activate", pumps),
		"Monitor temperatures until steady state (15-20 min)",
		"Verify the heat exchanger ΔT matches the design",
		"Check for leaks at all connections",
	} {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, " Normal operation:\n")
	for i, step := range []string{
		"Monitor compressor operating status",
		"Activate and deactivate pumps with compressor status",
		"Maintain the storage tank temperature in the operating band",
		"Monitor the heat exchanger approach temperature",
		"Check pressure drops stay within design limits",
		"Record temperatures hourly in the log",
		"Verify stratification in the storage tank is maintained",
	} {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, " Shutdown:\n")
	for i, step := range []string{
		"Stop the industrial water flow through the heat exchanger",
		"Allow the circulation pumps to run for 5 minutes",
		"Stop the circulation pumps in reverse order of startup",
		"Close the isolation valves",
		"For extended shutdown: drain the system if there is freezing risk",
		"Record final temperatures and pressures",
	} {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}
