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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProject(t *testing.T) {
	p, err := LoadProject("testdata/project.toml")
	if err != nil {
		t.Fatal(err)
	}
	if p.Client != "Papeles Cordillera S.A. (CMPC Puente Alto)" {
		t.Errorf("client: got %q", p.Client)
	}
	if len(p.Compressors) != 6 {
		t.Errorf("compressors: got %d, want 6", len(p.Compressors))
	}
	if len(p.Scenarios) != 3 {
		t.Errorf("scenarios: got %d, want 3", len(p.Scenarios))
	}
	if p.Design.ThermalPower != 622 {
		t.Errorf("design power: got %g kW, want 622 kW", p.Design.ThermalPower)
	}
	if len(p.Network.Branches) != 2 || p.Network.Header.Flow != 32.93 {
		t.Errorf("network: %d branches, header flow %g", len(p.Network.Branches), p.Network.Header.Flow)
	}
	if got := p.Network.Branches[0].Fittings["90_elbow"]; got != 4 {
		t.Errorf("branch C1 elbows: got %d, want 4", got)
	}
	if len(p.Pumps.Catalog) != 2 {
		t.Errorf("pump catalog: got %d entries, want 2", len(p.Pumps.Catalog))
	}
	var capex float64
	for _, item := range p.Finance.Capex {
		capex += item.Cost
	}
	if capex != 46255000 {
		t.Errorf("total CAPEX: got %g CLP, want 46255000 CLP", capex)
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	if _, err := LoadProject("testdata/no_such_project.toml"); err == nil {
		t.Fatal("expected file-not-found error")
	}
}

func TestCheckProject(t *testing.T) {
	load := func() *ProjectSpec {
		p, err := LoadProject("testdata/project.toml")
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	p := load()
	p.Compressors[1].ID = 1
	if err := checkProject(p); err == nil {
		t.Error("expected duplicate compressor ID error")
	}

	p = load()
	p.Scenarios[0].ActiveUnits = []int{99}
	if err := checkProject(p); err == nil {
		t.Error("expected unknown compressor error")
	}

	p = load()
	p.Network.Branches[1].ID = "C1"
	if err := checkProject(p); err == nil {
		t.Error("expected duplicate branch ID error")
	}

	p = load()
	p.Network.Branches[0].ID = ""
	if err := checkProject(p); err == nil {
		t.Error("expected empty branch ID error")
	}

	p = load()
	p.Compressors = nil
	if err := checkProject(p); err == nil {
		t.Error("expected no-compressors error")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("expected empty-path error")
	}
	if _, err := checkOutputFile("no_such_dir/report.xlsx"); err == nil {
		t.Error("expected missing-directory error")
	}
	got, err := checkOutputFile("testdata/report.xlsx")
	if err != nil {
		t.Error(err)
	}
	if got != "testdata/report.xlsx" {
		t.Errorf("output file: got %q", got)
	}

	os.Setenv("HEATREC_TEST_DIR", "testdata")
	defer os.Unsetenv("HEATREC_TEST_DIR")
	got, err = checkOutputFile("${HEATREC_TEST_DIR}/report.xlsx")
	if err != nil {
		t.Error(err)
	}
	if got != filepath.Join("testdata", "report.xlsx") {
		t.Errorf("expanded output file: got %q", got)
	}
}

func TestCheckLogFile(t *testing.T) {
	if got := checkLogFile("", "out/report.xlsx"); got != "out/report.log" {
		t.Errorf("default log file: got %q, want out/report.log", got)
	}
	if got := checkLogFile("custom.log", "out/report.xlsx"); got != "custom.log" {
		t.Errorf("explicit log file: got %q, want custom.log", got)
	}
}

func TestCheckOutputVars(t *testing.T) {
	vars, err := checkOutputVars(map[string]string{
		"SpecificCost": "FinanceCapex /\nSourceDesignThermalPower",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := vars["SpecificCost"]; got != "FinanceCapex / SourceDesignThermalPower" {
		t.Errorf("newline not stripped: got %q", got)
	}
}
