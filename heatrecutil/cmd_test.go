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
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/lnashier/viper"
	"github.com/thermalmodel/heatrec"
)

func TestGetStringMapString(t *testing.T) {
	want := map[string]string{"SpecificCost": "FinanceCapex / SourceDesignThermalPower"}

	// Set as a native map, as a configuration file would.
	cfg := viper.New()
	cfg.Set("OutputVariables", want)
	if got := GetStringMapString("OutputVariables", cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("map value: got %v, want %v", got, want)
	}

	// Set as a JSON string, as a command-line flag or environment
	// variable would.
	cfg = viper.New()
	cfg.Set("OutputVariables", `{"SpecificCost": "FinanceCapex / SourceDesignThermalPower"}`)
	if got := GetStringMapString("OutputVariables", cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("JSON value: got %v, want %v", got, want)
	}

	cfg = viper.New()
	cfg.Set("OutputVariables", "")
	if got := GetStringMapString("OutputVariables", cfg); len(got) != 0 {
		t.Errorf("empty value: got %v, want empty map", got)
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), heatrec.Version) {
		t.Errorf("version output %q missing %q", buf.String(), heatrec.Version)
	}
}

func TestAnalyzeCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"analyze", "--ProjectFile", "testdata/project.toml"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"HEAT SOURCES", "622 kW"} {
		if !strings.Contains(out, want) {
			t.Errorf("analyze output missing %q", want)
		}
	}
}

func TestPumpCmd(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"pump", "--ProjectFile", "testdata/project.toml"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"PIPING NETWORK", "CIRCULATION PUMPS", "NB 32-160/177"} {
		if !strings.Contains(out, want) {
			t.Errorf("pump output missing %q", want)
		}
	}
}
