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
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/thermalmodel/heatrec"
)

// ProjectSpec is the complete input data set for one heat recovery
// study, normally decoded from a TOML project file.
type ProjectSpec struct {
	Name     string
	Client   string
	Location string

	Compressors []heatrec.CompressorSpec
	Scenarios   []heatrec.OperatingScenario
	Design      heatrec.DesignConditions

	Network   heatrec.NetworkConfig
	Pumps     heatrec.PumpConfig
	Storage   heatrec.StorageConfig
	Exchanger heatrec.ExchangerConfig
	Balance   heatrec.BalanceConfig
	Finance   heatrec.FinanceConfig
}

// LoadProject reads and validates a TOML project file. Environment
// variables in the path are expanded.
func LoadProject(path string) (*ProjectSpec, error) {
	path = os.ExpandEnv(path)
	var p ProjectSpec
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("heatrec: problem reading project file %s: %v", path, err)
	}
	if err := checkProject(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// checkProject validates the cross-cutting consistency of a project
// specification before any stage runs. Per-stage validation happens in
// the stages themselves.
func checkProject(p *ProjectSpec) error {
	if len(p.Compressors) == 0 {
		return fmt.Errorf("heatrec: project file lists no compressors")
	}
	if len(p.Scenarios) == 0 {
		return fmt.Errorf("heatrec: project file lists no operating scenarios")
	}
	ids := make(map[int]struct{}, len(p.Compressors))
	for _, c := range p.Compressors {
		if _, ok := ids[c.ID]; ok {
			return fmt.Errorf("heatrec: duplicate compressor ID %d", c.ID)
		}
		ids[c.ID] = struct{}{}
	}
	for _, sc := range p.Scenarios {
		for _, u := range sc.ActiveUnits {
			if _, ok := ids[u]; !ok {
				return fmt.Errorf("heatrec: scenario %d references unknown compressor %d", sc.Scenario, u)
			}
		}
	}
	if len(p.Network.Branches) != 0 {
		branchIDs := make(map[string]struct{}, len(p.Network.Branches))
		for _, b := range p.Network.Branches {
			if b.ID == "" {
				return fmt.Errorf("heatrec: piping branch with empty ID")
			}
			if _, ok := branchIDs[b.ID]; ok {
				return fmt.Errorf("heatrec: duplicate piping branch ID %s", b.ID)
			}
			branchIDs[b.ID] = struct{}{}
		}
	}
	return nil
}

// checkOutputFile makes sure the output file's directory exists and
// expands any environment variables in the path.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="report.xlsx")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("heatrec: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one
// isn't specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

// checkOutputVars removes end lines and expands environment variables
// in the output variable expressions.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		vars[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return vars, nil
}
