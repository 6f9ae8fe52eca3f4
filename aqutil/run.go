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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom/proj"
	"github.com/edwinkost/aquifer-thickness"
	"github.com/edwinkost/aquifer-thickness/internal/hash"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newLogger returns a logger that writes to the command output and to
// logFile. The returned function closes the log file.
func newLogger(cmd *cobra.Command, logFile string) (*logrus.Logger, func(), error) {
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("aquifer: problem creating log file: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.MultiWriter(cmd.OutOrStdout(), f))
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return log, func() { f.Close() }, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readGrid downloads v.File if necessary and reads v onto geometry.
func readGrid(in *inputFiles, v InputVariable, geometry aquifer.GridGeometry) (*aquifer.Grid, error) {
	f, err := in.resolve(v.File)
	if err != nil {
		return nil, err
	}
	g, err := aquifer.ReadNetCDF(f, v.Variable, geometry)
	if err != nil {
		return nil, fmt.Errorf("aquifer: reading %s: %w", v, err)
	}
	return g, nil
}

// readGeometry returns the grid of v.
func readGeometry(in *inputFiles, v InputVariable, arcDegree bool) (aquifer.GridGeometry, error) {
	f, err := in.resolve(v.File)
	if err != nil {
		return aquifer.GridGeometry{}, err
	}
	return aquifer.ReadGeometry(f, v.Variable, arcDegree)
}

// readLandmask returns the defined cells of v, or nil if v is not specified.
func readLandmask(in *inputFiles, v InputVariable, geometry aquifer.GridGeometry) (*aquifer.Mask, error) {
	if v.File == "" {
		return nil, nil
	}
	g, err := readGrid(in, v, geometry)
	if err != nil {
		return nil, err
	}
	return g.Defined(), nil
}

// readZones rasterizes the aquifer zones of c onto geometry and reads the
// reference thickness table.
func readZones(in *inputFiles, c *RunConfig, geometry aquifer.GridGeometry) (*aquifer.Grid, *aquifer.LookupTable, error) {
	var sr *proj.SR
	if c.GridProj != "" {
		var err error
		if sr, err = proj.Parse(c.GridProj); err != nil {
			return nil, nil, fmt.Errorf("aquifer: parsing GridProj: %v", err)
		}
	}
	path, err := in.resolve(c.Aquifers)
	if err != nil {
		return nil, nil, err
	}
	r, err := aquifer.ZoneSource(path, c.Attribute, sr)
	if err != nil {
		return nil, nil, err
	}
	zones, err := r.Rasterize(geometry)
	if err != nil {
		return nil, nil, err
	}
	if path, err = in.resolve(c.ReferenceTable); err != nil {
		return nil, nil, err
	}
	ref, err := aquifer.ReadLookupTable(path, false)
	if err != nil {
		return nil, nil, err
	}
	ref.Name = "aquifer reference thickness"
	return zones, ref, nil
}

// outputAttributes adds the provenance of the run to the configured
// global attributes. inputs are the local paths of the input files.
func outputAttributes(log logrus.FieldLogger, attributes map[string]string, inputs ...string) map[string]string {
	o := make(map[string]string, len(attributes)+4)
	for k, v := range attributes {
		o[k] = v
	}
	o["created"] = time.Now().UTC().Format(time.RFC3339)
	o["model_version"] = aquifer.Version
	o["config_hash"] = hash.Hash(Cfg.AllSettings())
	if h, err := hash.Files(inputs...); err != nil {
		log.WithError(err).Warn("could not hash the input files")
	} else {
		o["input_hash"] = h
	}
	return o
}

// saveSettings writes the settings of the run next to outputFile so that
// it can be repeated with --config.
func saveSettings(outputFile string) error {
	f, err := os.Create(strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".toml")
	if err != nil {
		return err
	}
	if err = toml.NewEncoder(f).Encode(Cfg.AllSettings()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// quickLooks plots the variables in names that are in vars.
func quickLooks(log logrus.FieldLogger, outputFile string, vars []aquifer.OutputVariable, names ...string) {
	for _, v := range vars {
		for _, n := range names {
			if v.Name != n {
				continue
			}
			file := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_" + n + ".png"
			if err := aquifer.QuickLook(v.Grid, v.LongName, file, true); err != nil {
				log.WithError(err).Warn("quick look failed")
				continue
			}
			log.WithField("file", file).Info("saved quick look")
		}
	}
}

// MonteCarlo runs the Monte Carlo ensemble and, if c.Correct is true, the
// Margat correction, and writes the results to c.OutputFile.
func MonteCarlo(cmd *cobra.Command, c *RunConfig) error {
	log, closeLog, err := newLogger(cmd, c.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	inputs := newInputFiles()
	defer inputs.Remove()
	start := time.Now()
	log.WithField("version", aquifer.Version).Info("starting aquifer thickness estimate")

	geo, err := readGeometry(inputs, c.DEMAverage, c.ArcDegree)
	if err != nil {
		return err
	}
	log.WithField("grid", geo.String()).Info("read model grid")

	var in aquifer.EstimateInputs
	for _, x := range []struct {
		v InputVariable
		g **aquifer.Grid
	}{
		{c.DEMAverage, &in.DEMAverage},
		{c.DEMFloodplain, &in.DEMFloodplain},
		{c.LDD, &in.LDD},
	} {
		if *x.g, err = readGrid(inputs, x.v, geo); err != nil {
			return err
		}
	}
	if in.Mask, err = readLandmask(inputs, c.Landmask, geo); err != nil {
		return err
	}
	if c.Correct {
		if in.Zones, in.Reference, err = readZones(inputs, c, geo); err != nil {
			return err
		}
	}

	n := c.Sampler.Samples
	every := n / 10
	if every < 1 {
		every = 1
	}
	progress := func(s *aquifer.Sample) error {
		if (s.Index+1)%every == 0 || s.Index+1 == n {
			log.WithFields(logrus.Fields{
				"sample": s.Index + 1,
				"of":     n,
				"z":      s.Z,
				"d_avg":  s.Davg,
			}).Info("drew sample")
		}
		return nil
	}
	e, err := aquifer.Estimate(commandContext(cmd), c.Sampler, c.Margat, in, progress, log)
	if err != nil {
		return err
	}
	vars, err := e.OutputVariables()
	if err != nil {
		return err
	}
	attributes := outputAttributes(log, c.Attributes, inputs.Paths()...)
	if err = aquifer.WriteNetCDF(c.OutputFile, geo, vars, attributes); err != nil {
		return err
	}
	if err = saveSettings(c.OutputFile); err != nil {
		log.WithError(err).Warn("could not save the run settings")
	}
	if c.QuickLook {
		quickLooks(log, c.OutputFile, vars, "average", "average_corrected")
	}
	log.WithFields(logrus.Fields{
		"file":     c.OutputFile,
		"duration": time.Since(start).Round(time.Second).String(),
	}).Info("finished aquifer thickness estimate")
	return nil
}

// Margat applies the Margat correction to c.Thickness and writes the
// result to c.OutputFile.
func Margat(cmd *cobra.Command, c *RunConfig) error {
	log, closeLog, err := newLogger(cmd, c.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	inputs := newInputFiles()
	defer inputs.Remove()

	geo, err := readGeometry(inputs, c.Thickness, c.ArcDegree)
	if err != nil {
		return err
	}
	approx, err := readGrid(inputs, c.Thickness, geo)
	if err != nil {
		return err
	}
	ldd, err := readGrid(inputs, c.LDD, geo)
	if err != nil {
		return err
	}
	landmask := ldd.Defined()
	rawZones, ref, err := readZones(inputs, c, geo)
	if err != nil {
		return err
	}

	mc := &aquifer.MargatCorrector{MargatConfig: c.Margat, Log: log}
	zones, err := mc.ZoneMap(rawZones, ref)
	if err != nil {
		return err
	}
	r, err := mc.Correct(approx, zones, landmask)
	if err != nil {
		return err
	}

	corrected, err := aquifer.IfThen(landmask, r.Thickness)
	if err != nil {
		return err
	}
	vars := []aquifer.OutputVariable{{
		Name:     "average_corrected",
		Units:    "m",
		LongName: "aquifer thickness corrected to Margat and van der Gun (2013)",
		Grid:     corrected,
	}}
	attributes := outputAttributes(log, c.Attributes, inputs.Paths()...)
	if err = aquifer.WriteNetCDF(c.OutputFile, geo, vars, attributes); err != nil {
		return err
	}
	if err = saveSettings(c.OutputFile); err != nil {
		log.WithError(err).Warn("could not save the run settings")
	}
	if c.QuickLook {
		quickLooks(log, c.OutputFile, vars, "average_corrected")
	}
	log.WithField("file", c.OutputFile).Info("saved corrected thickness")
	return nil
}

// Report combines the aquifer thickness with the other groundwater model
// properties and writes them to c.OutputFile.
func Report(cmd *cobra.Command, c *ReportConfig) error {
	log, closeLog, err := newLogger(cmd, c.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	inputs := newInputFiles()
	defer inputs.Remove()

	geo, err := readGeometry(inputs, c.Thickness, c.ArcDegree)
	if err != nil {
		return err
	}
	grids := make([]*aquifer.Grid, 3)
	for i, v := range []InputVariable{c.Thickness, c.Conductivity, c.SpecificYield} {
		if grids[i], err = readGrid(inputs, v, geo); err != nil {
			return err
		}
	}
	landmask, err := readLandmask(inputs, c.Landmask, geo)
	if err != nil {
		return err
	}
	p, err := aquifer.NewGroundwaterProperties(grids[0], grids[1], grids[2], landmask)
	if err != nil {
		return err
	}
	attributes := outputAttributes(log, c.Attributes, inputs.Paths()...)
	if err = aquifer.WriteNetCDF(c.OutputFile, geo, p.OutputVariables(), attributes); err != nil {
		return err
	}
	log.WithField("file", c.OutputFile).Info("saved groundwater properties")
	return nil
}
