/*
Copyright © 2014 the aquifer-thickness authors.
This file is part of aquifer-thickness.

aquifer-thickness is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

aquifer-thickness is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with aquifer-thickness.  If not, see <http://www.gnu.org/licenses/>.
*/

package aqutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edwinkost/aquifer-thickness"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// InputVariable locates a variable in a NetCDF file.
type InputVariable struct {
	File, Variable string
}

func (v InputVariable) String() string { return v.File + ":" + v.Variable }

// RunConfig holds the configuration of the montecarlo, run and margat
// commands.
type RunConfig struct {
	OutputFile, LogFile string
	QuickLook           bool
	ArcDegree           bool

	// DEMAverage is also the grid reference of the run.
	DEMAverage, DEMFloodplain, LDD, Landmask InputVariable

	Sampler aquifer.SamplerConfig

	// Correct specifies whether the Margat correction is applied.
	Correct bool
	// Thickness is the field to be corrected by the margat command.
	Thickness InputVariable
	// Aquifers is the zone file and Attribute the zone id attribute in it.
	Aquifers, Attribute string
	ReferenceTable      string
	GridProj            string
	Margat              aquifer.MargatConfig

	Attributes map[string]string
}

// ReportConfig holds the configuration of the report command.
type ReportConfig struct {
	OutputFile, LogFile string
	ArcDegree           bool

	Thickness, Conductivity, SpecificYield, Landmask InputVariable

	Attributes map[string]string
}

// expand trims s and expands any environment variables in it.
func expand(s string) string {
	return os.ExpandEnv(strings.TrimSpace(s))
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="thickness.nc")`)
	}
	f = expand(f)
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("aquifer: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return expand(logFile)
}

// checkInputFile makes sure that a required input file is specified.
func checkInputFile(name string, v InputVariable) (InputVariable, error) {
	if v.File == "" {
		return v, fmt.Errorf("aquifer: you need to specify the %s.File configuration variable", name)
	}
	if v.Variable == "" {
		return v, fmt.Errorf("aquifer: you need to specify the %s.Variable configuration variable", name)
	}
	return v, nil
}

func inputVariable(cfg *viper.Viper, name string) InputVariable {
	return InputVariable{
		File:     expand(cfg.GetString(name + ".File")),
		Variable: cfg.GetString(name + ".Variable"),
	}
}

// toFloat64SliceE converts a configuration value to a float slice. Values
// set from the command line arrive as strings like "[0.7,0.25,0.05]".
func toFloat64SliceE(i interface{}) ([]float64, error) {
	switch v := i.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for j, x := range v {
			f, err := cast.ToFloat64E(x)
			if err != nil {
				return nil, err
			}
			o[j] = f
		}
		return o, nil
	case []string:
		o := make([]float64, len(v))
		for j, x := range v {
			f, err := cast.ToFloat64E(strings.TrimSpace(x))
			if err != nil {
				return nil, err
			}
			o[j] = f
		}
		return o, nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(v), "["), "]"))
		if s == "" {
			return nil, nil
		}
		return toFloat64SliceE(strings.Split(s, ","))
	default:
		return nil, fmt.Errorf("unable to convert %#v of type %T to []float64", i, i)
	}
}

// SamplerConfig unmarshals a viper configuration for the Monte Carlo
// sampler, including its lookup tables.
func SamplerConfig(cfg *viper.Viper) (aquifer.SamplerConfig, error) {
	c := aquifer.SamplerConfig{
		Threshold:           cfg.GetFloat64("MonteCarlo.Threshold"),
		ElevationMin:        cfg.GetFloat64("MonteCarlo.ElevationMin"),
		ElevationMax:        cfg.GetFloat64("MonteCarlo.ElevationMax"),
		Samples:             cfg.GetInt("MonteCarlo.Samples"),
		IncludePercentiles:  cfg.GetBool("MonteCarlo.IncludePercentiles"),
		LnCV:                cfg.GetFloat64("MonteCarlo.LnCV"),
		MinimumDepth:        cfg.GetFloat64("MonteCarlo.MinimumDepth"),
		ZMin:                cfg.GetFloat64("MonteCarlo.ZMin"),
		ZMax:                cfg.GetFloat64("MonteCarlo.ZMax"),
		FMin:                cfg.GetFloat64("MonteCarlo.FMin"),
		FMax:                cfg.GetFloat64("MonteCarlo.FMax"),
		ExtrapolationWindow: cfg.GetFloat64("MonteCarlo.ExtrapolationWindow"),
		SmoothingWindow:     cfg.GetFloat64("MonteCarlo.SmoothingWindow"),
		Decimals:            cfg.GetInt("MonteCarlo.Decimals"),
		Workers:             cfg.GetInt("MonteCarlo.Workers"),
	}
	seed, err := cast.ToUint64E(cfg.Get("MonteCarlo.Seed"))
	if err != nil {
		return c, fmt.Errorf("aquifer: MonteCarlo.Seed: %v", err)
	}
	c.Seed = seed
	if c.Percentiles, err = toFloat64SliceE(cfg.Get("MonteCarlo.Percentiles")); err != nil {
		return c, fmt.Errorf("aquifer: MonteCarlo.Percentiles: %v", err)
	}
	if c.Samples < 2 {
		return c, &aquifer.InsufficientSampleError{N: c.Samples}
	}

	tables := []struct {
		name   string
		linear bool
		t      **aquifer.LookupTable
	}{
		{"AverageThicknessTable", false, &c.AverageThickness},
		{"ZScoreTable", cfg.GetBool("ZScoreTableLinear"), &c.ZScore},
	}
	in := newInputFiles()
	defer in.Remove()
	for _, tbl := range tables {
		path := expand(cfg.GetString(tbl.name))
		if path == "" {
			return c, fmt.Errorf("aquifer: you need to specify the %s configuration variable", tbl.name)
		}
		if path, err = in.resolve(path); err != nil {
			return c, err
		}
		if *tbl.t, err = aquifer.ReadLookupTable(path, tbl.linear); err != nil {
			return c, fmt.Errorf("aquifer: %s: %w", tbl.name, err)
		}
	}
	return c, c.Validate()
}

// MargatConfig unmarshals a viper configuration for the Margat correction.
func MargatConfig(cfg *viper.Viper) (aquifer.MargatConfig, error) {
	c := aquifer.DefaultMargatConfig()
	c.MinApproxThickness = cfg.GetFloat64("Margat.MinApproxThickness")
	c.MaxZoneID = cfg.GetFloat64("Margat.MaxZoneID")
	c.ZoneExtendWindow = cfg.GetFloat64("Margat.ZoneExtendWindow")
	c.LowerPercentile = cfg.GetFloat64("Margat.LowerPercentile")
	c.UpperPercentile = cfg.GetFloat64("Margat.UpperPercentile")
	c.Fill.Method = aquifer.FillMethod(strings.ToLower(cfg.GetString("Margat.FillMethod")))
	c.Fill.IDPower = cfg.GetFloat64("Margat.IDPower")
	c.Fill.IDRadius = cfg.GetFloat64("Margat.IDRadius")
	c.Fill.IDMaxPoints = cfg.GetInt("Margat.IDMaxPoints")
	var err error
	if c.Fill.Weights, err = toFloat64SliceE(cfg.Get("Margat.FillWeights")); err != nil {
		return c, fmt.Errorf("aquifer: Margat.FillWeights: %v", err)
	}
	if c.Fill.Windows, err = toFloat64SliceE(cfg.Get("Margat.FillWindows")); err != nil {
		return c, fmt.Errorf("aquifer: Margat.FillWindows: %v", err)
	}
	return c, c.Validate()
}

// runConfig unmarshals the configuration of the montecarlo and run
// commands. If correct is true, the Margat correction is applied when an
// aquifer zone file is specified.
func runConfig(cfg *viper.Viper, correct bool) (*RunConfig, error) {
	c, err := commonRunConfig(cfg)
	if err != nil {
		return nil, err
	}
	for _, v := range []struct {
		name string
		v    *InputVariable
	}{
		{"DEMAverage", &c.DEMAverage},
		{"DEMFloodplain", &c.DEMFloodplain},
		{"LDD", &c.LDD},
	} {
		if *v.v, err = checkInputFile(v.name, inputVariable(cfg, v.name)); err != nil {
			return nil, err
		}
	}
	c.Landmask = inputVariable(cfg, "Landmask")

	if c.Sampler, err = SamplerConfig(cfg); err != nil {
		return nil, err
	}
	if correct && c.Aquifers != "" {
		c.Correct = true
		if c.ReferenceTable == "" {
			return nil, fmt.Errorf("aquifer: Aquifers.File is specified so Aquifers.ReferenceTable needs to be too")
		}
		if c.Margat, err = MargatConfig(cfg); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// margatRunConfig unmarshals the configuration of the margat command.
func margatRunConfig(cfg *viper.Viper) (*RunConfig, error) {
	c, err := commonRunConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.Correct = true
	if c.Thickness, err = checkInputFile("Margat.Input", InputVariable{
		File:     expand(cfg.GetString("Margat.InputFile")),
		Variable: cfg.GetString("Margat.InputVariable"),
	}); err != nil {
		return nil, err
	}
	if c.LDD, err = checkInputFile("LDD", inputVariable(cfg, "LDD")); err != nil {
		return nil, err
	}
	if c.Aquifers == "" || c.ReferenceTable == "" {
		return nil, fmt.Errorf("aquifer: the margat command needs Aquifers.File and Aquifers.ReferenceTable")
	}
	if c.Margat, err = MargatConfig(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func commonRunConfig(cfg *viper.Viper) (*RunConfig, error) {
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return nil, err
	}
	return &RunConfig{
		OutputFile:     outputFile,
		LogFile:        checkLogFile(cfg.GetString("LogFile"), outputFile),
		QuickLook:      cfg.GetBool("SaveQuickLook"),
		ArcDegree:      cfg.GetBool("ArcDegree"),
		Aquifers:       expand(cfg.GetString("Aquifers.File")),
		Attribute:      cfg.GetString("Aquifers.Attribute"),
		ReferenceTable: expand(cfg.GetString("Aquifers.ReferenceTable")),
		GridProj:       cfg.GetString("GridProj"),
		Attributes:     GetStringMapString("NetCDFAttributes", cfg),
	}, nil
}

// reportConfig unmarshals the configuration of the report command.
func reportConfig(cfg *viper.Viper) (*ReportConfig, error) {
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return nil, err
	}
	c := &ReportConfig{
		OutputFile: outputFile,
		LogFile:    checkLogFile(cfg.GetString("LogFile"), outputFile),
		ArcDegree:  cfg.GetBool("ArcDegree"),
		Landmask:   inputVariable(cfg, "Landmask"),
		Attributes: GetStringMapString("NetCDFAttributes", cfg),
	}
	properties := expand(cfg.GetString("Report.PropertiesFile"))
	for _, v := range []struct {
		name string
		v    *InputVariable
		iv   InputVariable
	}{
		{"Report.Thickness", &c.Thickness, InputVariable{expand(cfg.GetString("Report.ThicknessFile")), cfg.GetString("Report.ThicknessVariable")}},
		{"Report.Properties", &c.Conductivity, InputVariable{properties, cfg.GetString("Report.ConductivityVariable")}},
		{"Report.Properties", &c.SpecificYield, InputVariable{properties, cfg.GetString("Report.SpecificYieldVariable")}},
	} {
		if *v.v, err = checkInputFile(v.name, v.iv); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}
	case map[string]string:
		return v
	case map[string]interface{}:
		return cast.ToStringMapString(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			panic(fmt.Errorf("aquifer: parsing %s: %v", varName, err))
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}
