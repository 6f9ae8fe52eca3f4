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

// Package aqutil holds the command-line interface and configuration
// handling of the aquifer thickness model.
package aqutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/edwinkost/aquifer-thickness"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

func init() {
	sampler := aquifer.DefaultSamplerConfig()
	margat := aquifer.DefaultMargatConfig()

	// inputs holds the flag sets of the commands that read the elevation
	// and drainage inputs.
	inputs := []*pflag.FlagSet{montecarloCmd.Flags(), runCmd.Flags()}
	// estimates holds the flag sets of the commands that write thickness.
	estimates := []*pflag.FlagSet{montecarloCmd.Flags(), runCmd.Flags(), margatCmd.Flags()}
	// corrections holds the flag sets of the commands that apply the
	// Margat correction.
	corrections := []*pflag.FlagSet{runCmd.Flags(), margatCmd.Flags()}

	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the NetCDF output file.
              It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "aquifer_thickness.nc",
			flagsets:   append(estimates, reportCmd.Flags()),
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to the log file. If it is empty,
              the log is written next to OutputFile with the extension .log.`,
			defaultVal: "",
			flagsets:   append(estimates, reportCmd.Flags()),
		},
		{
			name: "SaveQuickLook",
			usage: `
              SaveQuickLook specifies whether to save PNG maps of the thickness
              next to OutputFile.`,
			defaultVal: false,
			flagsets:   estimates,
		},
		{
			name: "ArcDegree",
			usage: `
              ArcDegree specifies that the grid is in geographic coordinates,
              so its cell size is rounded to remove single precision error.`,
			defaultVal: true,
			flagsets:   append(append([]*pflag.FlagSet{}, estimates...), reportCmd.Flags()),
		},
		{
			name: "GridProj",
			usage: `
              GridProj gives the projection of the grid as a proj4 string.
              If it is set, aquifer polygons that have a .prj file are
              reprojected to it.`,
			defaultVal: "+proj=longlat +datum=WGS84 +no_defs",
			flagsets:   corrections,
		},
		{
			name: "DEMAverage.File",
			usage: `
              DEMAverage.File is the NetCDF file holding the average surface
              elevation [m] of each cell. Its grid is the model grid. It can
              be a URL.`,
			defaultVal: "",
			flagsets:   inputs,
		},
		{
			name: "DEMAverage.Variable",
			usage: `
              DEMAverage.Variable is the variable in DEMAverage.File.`,
			defaultVal: "dem_average",
			flagsets:   inputs,
		},
		{
			name: "DEMFloodplain.File",
			usage: `
              DEMFloodplain.File is the NetCDF file holding the floodplain
              elevation [m] of each cell.`,
			defaultVal: "",
			flagsets:   inputs,
		},
		{
			name: "DEMFloodplain.Variable",
			usage: `
              DEMFloodplain.Variable is the variable in DEMFloodplain.File.`,
			defaultVal: "dem_floodplain",
			flagsets:   inputs,
		},
		{
			name: "LDD.File",
			usage: `
              LDD.File is the NetCDF file holding the local drain directions.
              Cells where it is undefined are outside the landmask.`,
			defaultVal: "",
			flagsets:   append(append([]*pflag.FlagSet{}, inputs...), margatCmd.Flags()),
		},
		{
			name: "LDD.Variable",
			usage: `
              LDD.Variable is the variable in LDD.File.`,
			defaultVal: "lddsound",
			flagsets:   append(append([]*pflag.FlagSet{}, inputs...), margatCmd.Flags()),
		},
		{
			name: "Landmask.File",
			usage: `
              Landmask.File optionally gives a NetCDF file whose defined cells
              further restrict the landmask.`,
			defaultVal: "",
			flagsets:   append(append([]*pflag.FlagSet{}, inputs...), reportCmd.Flags()),
		},
		{
			name: "Landmask.Variable",
			usage: `
              Landmask.Variable is the variable in Landmask.File.`,
			defaultVal: "landmask",
			flagsets:   append(append([]*pflag.FlagSet{}, inputs...), reportCmd.Flags()),
		},
		{
			name: "AverageThicknessTable",
			usage: `
              AverageThicknessTable is the lookup table from z-score to
              average aquifer thickness [m].`,
			defaultVal: "",
			flagsets:   inputs,
		},
		{
			name: "ZScoreTable",
			usage: `
              ZScoreTable is the lookup table from relative elevation to
              z-score.`,
			defaultVal: "",
			flagsets:   inputs,
		},
		{
			name: "ZScoreTableLinear",
			usage: `
              ZScoreTableLinear specifies that ZScoreTable is interpolated
              linearly instead of matched by key.`,
			defaultVal: false,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.Samples",
			usage: `
              MonteCarlo.Samples is the number of Monte Carlo draws. It must be
              at least 2.`,
			shorthand:  "n",
			defaultVal: sampler.Samples,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.Seed",
			usage: `
              MonteCarlo.Seed seeds the random number generator. Runs with the
              same seed and inputs give the same results.`,
			defaultVal: 0,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.Workers",
			usage: `
              MonteCarlo.Workers is the number of draws calculated at the same
              time. If < 1, the number of processors is used.`,
			defaultVal: 0,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.IncludePercentiles",
			usage: `
              MonteCarlo.IncludePercentiles specifies whether to write the
              percentiles of the ensemble.`,
			defaultVal: sampler.IncludePercentiles,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.Percentiles",
			usage: `
              MonteCarlo.Percentiles lists the percentiles (0-1) to write.`,
			defaultVal: sampler.Percentiles,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.Threshold",
			usage: `
              MonteCarlo.Threshold [m] is the maximum elevation above the
              floodplain of sedimentary basin cells.`,
			defaultVal: sampler.Threshold,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.ElevationMin",
			usage: `
              MonteCarlo.ElevationMin [m] is the lower bound of the elevation
              above the floodplain.`,
			defaultVal: sampler.ElevationMin,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.ElevationMax",
			usage: `
              MonteCarlo.ElevationMax [m] is the upper bound of the elevation
              above the floodplain.`,
			defaultVal: sampler.ElevationMax,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.LnCV",
			usage: `
              MonteCarlo.LnCV is the coefficient of variation of the log
              thickness. It belongs with AverageThicknessTable.`,
			defaultVal: sampler.LnCV,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.MinimumDepth",
			usage: `
              MonteCarlo.MinimumDepth [m] is the smallest thickness of a draw.`,
			defaultVal: sampler.MinimumDepth,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.ZMin",
			usage: `
              MonteCarlo.ZMin is the lower bound of the z-score of a draw.`,
			defaultVal: sampler.ZMin,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.ZMax",
			usage: `
              MonteCarlo.ZMax is the upper bound of the z-score of a draw.`,
			defaultVal: sampler.ZMax,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.FMin",
			usage: `
              MonteCarlo.FMin is the lower bound of the z-score field.`,
			defaultVal: sampler.FMin,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.FMax",
			usage: `
              MonteCarlo.FMax is the upper bound of the z-score field.`,
			defaultVal: sampler.FMax,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.ExtrapolationWindow",
			usage: `
              MonteCarlo.ExtrapolationWindow is the window length, in map
              units, of the last extrapolation step.`,
			defaultVal: sampler.ExtrapolationWindow,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.SmoothingWindow",
			usage: `
              MonteCarlo.SmoothingWindow is the window length, in map units,
              of the smoothing applied to each draw.`,
			defaultVal: sampler.SmoothingWindow,
			flagsets:   inputs,
		},
		{
			name: "MonteCarlo.Decimals",
			usage: `
              MonteCarlo.Decimals is the number of decimals the thickness of
              each draw is rounded down to.`,
			defaultVal: sampler.Decimals,
			flagsets:   inputs,
		},
		{
			name: "Aquifers.File",
			usage: `
              Aquifers.File holds the aquifer zones of Margat and van der Gun
              (2013), as a polygon shapefile or as a NetCDF file on the model
              grid. It can be a URL. If it is empty, 'run' skips the
              correction.`,
			defaultVal: "",
			flagsets:   corrections,
		},
		{
			name: "Aquifers.Attribute",
			usage: `
              Aquifers.Attribute is the shapefile attribute or NetCDF variable
              holding the zone ids.`,
			defaultVal: "MARGAT",
			flagsets:   corrections,
		},
		{
			name: "Aquifers.ReferenceTable",
			usage: `
              Aquifers.ReferenceTable is the lookup table from zone id to
              reference thickness [m].`,
			defaultVal: "",
			flagsets:   corrections,
		},
		{
			name: "Margat.InputFile",
			usage: `
              Margat.InputFile is the NetCDF file holding the thickness to be
              corrected. Its grid is the model grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{margatCmd.Flags()},
		},
		{
			name: "Margat.InputVariable",
			usage: `
              Margat.InputVariable is the variable in Margat.InputFile.`,
			defaultVal: "average",
			flagsets:   []*pflag.FlagSet{margatCmd.Flags()},
		},
		{
			name: "Margat.MinApproxThickness",
			usage: `
              Margat.MinApproxThickness [m] is the floor applied to the
              thickness before correction.`,
			defaultVal: margat.MinApproxThickness,
			flagsets:   corrections,
		},
		{
			name: "Margat.MaxZoneID",
			usage: `
              Margat.MaxZoneID is the exclusive upper bound of valid zone ids.`,
			defaultVal: margat.MaxZoneID,
			flagsets:   corrections,
		},
		{
			name: "Margat.ZoneExtendWindow",
			usage: `
              Margat.ZoneExtendWindow is the window length, in map units, of
              the majority filter that extends the aquifer zones.`,
			defaultVal: margat.ZoneExtendWindow,
			flagsets:   corrections,
		},
		{
			name: "Margat.LowerPercentile",
			usage: `
              Margat.LowerPercentile (0-100) is the lower end of the range of
              the log thickness that is rescaled in each zone.`,
			defaultVal: margat.LowerPercentile,
			flagsets:   corrections,
		},
		{
			name: "Margat.UpperPercentile",
			usage: `
              Margat.UpperPercentile (0-100) is the upper end of the range of
              the log thickness that is rescaled in each zone.`,
			defaultVal: margat.UpperPercentile,
			flagsets:   corrections,
		},
		{
			name: "Margat.FillMethod",
			usage: `
              Margat.FillMethod is how corrected values are extrapolated
              beyond the zones: 'windowaverage' or 'inversedistance'.`,
			defaultVal: string(margat.Fill.Method),
			flagsets:   corrections,
		},
		{
			name: "Margat.FillWeights",
			usage: `
              Margat.FillWeights are the weights of the window averages of
              the fill.`,
			defaultVal: margat.Fill.Weights,
			flagsets:   corrections,
		},
		{
			name: "Margat.FillWindows",
			usage: `
              Margat.FillWindows are the window lengths, in map units, of the
              window averages of the fill.`,
			defaultVal: margat.Fill.Windows,
			flagsets:   corrections,
		},
		{
			name: "Margat.IDPower",
			usage: `
              Margat.IDPower is the power of the inverse distance fill.`,
			defaultVal: margat.Fill.IDPower,
			flagsets:   corrections,
		},
		{
			name: "Margat.IDRadius",
			usage: `
              Margat.IDRadius is the search radius, in map units, of the
              inverse distance fill.`,
			defaultVal: margat.Fill.IDRadius,
			flagsets:   corrections,
		},
		{
			name: "Margat.IDMaxPoints",
			usage: `
              Margat.IDMaxPoints is the largest number of cells used by the
              inverse distance fill.`,
			defaultVal: margat.Fill.IDMaxPoints,
			flagsets:   corrections,
		},
		{
			name: "Report.ThicknessFile",
			usage: `
              Report.ThicknessFile is the NetCDF file holding the aquifer
              thickness. Its grid is the model grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "Report.ThicknessVariable",
			usage: `
              Report.ThicknessVariable is the variable in Report.ThicknessFile.`,
			defaultVal: "average_corrected",
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "Report.PropertiesFile",
			usage: `
              Report.PropertiesFile is the NetCDF file holding saturated
              conductivity and specific yield on the model grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "Report.ConductivityVariable",
			usage: `
              Report.ConductivityVariable is the saturated conductivity
              [m/day] variable in Report.PropertiesFile.`,
			defaultVal: "kSatAquifer",
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "Report.SpecificYieldVariable",
			usage: `
              Report.SpecificYieldVariable is the specific yield variable in
              Report.PropertiesFile.`,
			defaultVal: "specificYield",
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "QuickLook.File",
			usage: `
              QuickLook.File is the NetCDF file to be plotted.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
		{
			name: "QuickLook.Variable",
			usage: `
              QuickLook.Variable is the variable to be plotted.`,
			defaultVal: "average_corrected",
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
		{
			name: "QuickLook.Output",
			usage: `
              QuickLook.Output is the image file to create. Its extension sets
              the format (.png, .pdf, .svg).`,
			defaultVal: "thickness.png",
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
		{
			name: "QuickLook.Log",
			usage: `
              QuickLook.Log specifies whether to plot the natural logarithm of
              the values.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
		{
			name: "NetCDFAttributes",
			usage: `
              NetCDFAttributes are the global attributes of the output files.`,
			defaultVal: map[string]string{
				"institution": "Utrecht University, Dept. of Physical Geography",
				"title":       "Aquifer thickness",
				"source":      "None",
				"history":     "None",
				"references":  "de Graaf et al. (2014); Margat and van der Gun (2013)",
				"description": "None",
				"comment":     "None",
			},
			flagsets: append(append([]*pflag.FlagSet{}, estimates...), reportCmd.Flags()),
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("AQUIFER")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			addFlag(set, option)
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func addFlag(set *pflag.FlagSet, o option) {
	switch v := o.defaultVal.(type) {
	case string:
		set.StringP(o.name, o.shorthand, v, o.usage)
	case []string:
		set.StringSliceP(o.name, o.shorthand, v, o.usage)
	case bool:
		set.BoolP(o.name, o.shorthand, v, o.usage)
	case int:
		set.IntP(o.name, o.shorthand, v, o.usage)
	case float64:
		set.Float64P(o.name, o.shorthand, v, o.usage)
	case []float64:
		set.Float64SliceP(o.name, o.shorthand, v, o.usage)
	case map[string]string:
		b := bytes.NewBuffer(nil)
		e := json.NewEncoder(b)
		e.Encode(v)
		set.StringP(o.name, o.shorthand, b.String(), o.usage)
	default:
		panic(fmt.Errorf("aqutil: invalid type %T for option %s", o.defaultVal, o.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(montecarloCmd)
	Root.AddCommand(margatCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(reportCmd)
	Root.AddCommand(quicklookCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("aquifer: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "aquifer",
	Short: "Estimate aquifer thickness.",
	Long: `aquifer estimates the thickness of aquifers in sedimentary basins with a
Monte Carlo ensemble driven by topography (de Graaf et al., 2014), and
corrects it to the aquifer thickness per zone of Margat and van der Gun (2013).
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'AQUIFER_var' where 'var' is the
name of the variable to be set. File names can contain environment variables.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of aquifer.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("aquifer v%s\n", aquifer.Version)
	},
	DisableAutoGenTag: true,
}

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Run the Monte Carlo thickness ensemble.",
	Long: `montecarlo draws an ensemble of aquifer thickness fields and saves their
average, variance, standard deviation and, optionally, percentiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := runConfig(Cfg, false)
		if err != nil {
			return err
		}
		return MonteCarlo(cmd, c)
	},
	DisableAutoGenTag: true,
}

var margatCmd = &cobra.Command{
	Use:   "margat",
	Short: "Correct a thickness field to the Margat aquifer table.",
	Long: `margat rescales the thickness in Margat.InputFile within each aquifer zone
so that it agrees with the zone's reference thickness, and saves it as the
variable 'average_corrected'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := margatRunConfig(Cfg)
		if err != nil {
			return err
		}
		return Margat(cmd, c)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ensemble and the Margat correction.",
	Long: `run draws the Monte Carlo ensemble and applies the Margat correction to
the ensemble average. The output file holds the ensemble statistics and the
variable 'average_corrected'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := runConfig(Cfg, true)
		if err != nil {
			return err
		}
		return MonteCarlo(cmd, c)
	},
	DisableAutoGenTag: true,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Save groundwater model properties.",
	Long: `report combines the aquifer thickness with saturated conductivity and
specific yield and saves them as the variables saturated_conductivity (m/day),
specific_yield (1) and thickness (m), defined where the thickness is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := reportConfig(Cfg)
		if err != nil {
			return err
		}
		return Report(cmd, c)
	},
	DisableAutoGenTag: true,
}

var quicklookCmd = &cobra.Command{
	Use:   "quicklook",
	Short: "Plot a variable of a NetCDF file.",
	Long:  `quicklook saves a map of a variable in a NetCDF file as an image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := newInputFiles()
		defer in.Remove()
		file, err := in.resolve(expand(Cfg.GetString("QuickLook.File")))
		if err != nil {
			return err
		}
		v := Cfg.GetString("QuickLook.Variable")
		geo, err := aquifer.ReadGeometry(file, v, Cfg.GetBool("ArcDegree"))
		if err != nil {
			return err
		}
		g, err := aquifer.ReadNetCDF(file, v, geo)
		if err != nil {
			return err
		}
		return aquifer.QuickLook(g, v, expand(Cfg.GetString("QuickLook.Output")), Cfg.GetBool("QuickLook.Log"))
	},
	DisableAutoGenTag: true,
}
