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
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thermalmodel/heatrec"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to HeatRec.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ProjectFile",
			usage: `
              ProjectFile specifies the TOML file holding the project input
              data: compressors, operating scenarios, design conditions, and
              the per-stage design parameters.`,
			shorthand:  "p",
			defaultVal: "project.toml",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the desired report file. A
              .xlsx extension produces a workbook with one sheet per design
              stage; any other extension produces a plain-text report.`,
			shorthand:  "o",
			defaultVal: "report.xlsx",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to the desired logfile location.
              If LogFile is left blank, the logfile will be saved in the same
              location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile specifies the base path for the diagnostic figures
              (pump/system curves and scenario powers). If left blank no
              figures are produced.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies additional report variables as
              expressions over the design results, for example
              {"SpecificCost": "FinanceCapex / SourceDesignThermalPower"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HEATREC")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(analyzeCmd)
	Root.AddCommand(pipeCmd)
	Root.AddCommand(pumpCmd)
	Root.AddCommand(storageCmd)
	Root.AddCommand(exchangerCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("heatrec: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a JSON string
// if it was set from a command-line argument or environment variable.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch t := i.(type) {
	case string:
		out := make(map[string]string)
		if t == "" {
			return out
		}
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			panic(fmt.Errorf("heatrec: parsing %s: %v", varName, err))
		}
		return out
	default:
		return cast.ToStringMapString(i)
	}
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "heatrec",
	Short: "A design tool for compressor heat recovery systems.",
	Long: `HeatRec sizes industrial compressor heat-recovery systems: it analyzes
the compressor heat sources, sizes the collection piping network, selects
circulation pumps, sizes the stratified storage tank, designs the recovery
heat exchanger, and closes the system energy balance and the financial case.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'HEATREC_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of HeatRec.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("HeatRec v%s\n", heatrec.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full design pipeline.",
	Long: `run executes every design stage in order and writes the report:
heat-source analysis, piping sizing, pump selection, storage sizing,
heat exchanger design, energy balance, and financial evaluation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := LoadProject(Cfg.GetString("ProjectFile"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		outputVars, err := checkOutputVars(GetStringMapString("OutputVariables", Cfg))
		if err != nil {
			return err
		}
		log := logrus.New()
		logFile := checkLogFile(Cfg.GetString("LogFile"), outputFile)
		f, err := os.Create(logFile)
		if err != nil {
			return fmt.Errorf("heatrec: problem creating log file: %v", err)
		}
		defer f.Close()
		log.Out = f

		_, err = Run(log, project, outputFile, outputVars, Cfg.GetString("PlotFile"))
		return err
	},
	DisableAutoGenTag: true,
}

// partialCmd builds a subcommand that runs the pipeline through the
// given stages and prints the text report.
func partialCmd(use, short, long string, stages func(p *ProjectSpec) []heatrec.SystemManipulator) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := LoadProject(Cfg.GetString("ProjectFile"))
			if err != nil {
				return err
			}
			s := &heatrec.System{
				InitFuncs: []heatrec.SystemManipulator{
					heatrec.AnalyzeSources(project.Compressors, project.Scenarios, project.Design),
				},
				RunFuncs: stages(project),
			}
			if err := s.Init(); err != nil {
				return err
			}
			if err := s.Run(); err != nil {
				return err
			}
			return heatrec.WriteReport(cmd.OutOrStdout(), s, nil)
		},
		DisableAutoGenTag: true,
	}
}

var analyzeCmd = partialCmd("analyze",
	"Analyze the compressor heat sources.",
	`analyze verifies the compressor and scenario data and reports the
station's recoverable capacity without running the downstream stages.`,
	func(p *ProjectSpec) []heatrec.SystemManipulator { return nil })

var pipeCmd = partialCmd("pipe",
	"Size the piping network.",
	`pipe sizes every branch and the collection header and reports the
selected diameters, velocities, and pressure drops.`,
	func(p *ProjectSpec) []heatrec.SystemManipulator {
		return []heatrec.SystemManipulator{heatrec.SizeNetwork(p.Network)}
	})

var pumpCmd = partialCmd("pump",
	"Select circulation pumps.",
	`pump sizes the piping network and selects circulation pumps against
the resulting system curve, verifying the NPSH margin.`,
	func(p *ProjectSpec) []heatrec.SystemManipulator {
		return []heatrec.SystemManipulator{
			heatrec.SizeNetwork(p.Network),
			heatrec.SelectPumps(p.Pumps),
		}
	})

var storageCmd = partialCmd("storage",
	"Size the thermal storage tank.",
	`storage sizes the stratified accumulator tank for the design thermal
power and reports its dimensions, losses, and stratification quality.`,
	func(p *ProjectSpec) []heatrec.SystemManipulator {
		return []heatrec.SystemManipulator{heatrec.SizeStorage(p.Storage)}
	})

var exchangerCmd = partialCmd("exchanger",
	"Design the recovery heat exchanger.",
	`exchanger selects and rates a commercial plate heat exchanger for the
design duty using the LMTD and effectiveness-NTU methods.`,
	func(p *ProjectSpec) []heatrec.SystemManipulator {
		return []heatrec.SystemManipulator{heatrec.DesignExchanger(p.Exchanger)}
	})
