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

package aquifer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// EstimateInputs holds everything needed to estimate aquifer thickness.
type EstimateInputs struct {
	SamplerInputs

	// Zones holds rasterized aquifer zone ids and Reference maps them to
	// a reference thickness [m]. If Zones is nil the Margat correction
	// is skipped.
	Zones     *Grid
	Reference *LookupTable
}

// Estimation is the result of a thickness estimate.
type Estimation struct {
	Landmask *Mask
	Stats    *Statistics

	// Corrected is nil if no Margat correction was made.
	Corrected *MargatResult
}

// Estimate runs the Monte Carlo ensemble, calculates its statistics and
// applies the Margat correction to the ensemble average.
// h may be nil. log may be nil.
func Estimate(ctx context.Context, sampler SamplerConfig, margat MargatConfig, in EstimateInputs, h SampleHandler, log logrus.FieldLogger) (*Estimation, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if sampler.Samples < 2 {
		return nil, &InsufficientSampleError{N: sampler.Samples}
	}
	if in.Zones != nil && in.Reference == nil {
		return nil, fmt.Errorf("aquifer: aquifer zones were given without a reference thickness table")
	}
	s, err := Setup(sampler, in.SamplerInputs, log)
	if err != nil {
		return nil, err
	}
	agg := NewAggregator(s.Geometry, sampler.IncludePercentiles)
	if err = s.RunEnsemble(ctx, agg, h); err != nil {
		return nil, err
	}
	var percentiles []float64
	if sampler.IncludePercentiles {
		percentiles = sampler.Percentiles
	}
	e := &Estimation{Landmask: s.Landmask}
	if e.Stats, err = agg.Finalize(percentiles); err != nil {
		return nil, err
	}
	if in.Zones == nil {
		return e, nil
	}

	log.Info("applying the Margat correction to the ensemble average")
	mc := &MargatCorrector{MargatConfig: margat, Log: log}
	zones, err := mc.ZoneMap(in.Zones, in.Reference)
	if err != nil {
		return nil, err
	}
	if e.Corrected, err = mc.Correct(e.Stats.Mean, zones, s.Landmask); err != nil {
		return nil, err
	}
	return e, nil
}

// PercentileName returns the output variable name of percentile p (0-1).
func PercentileName(p float64) string {
	return "percentile_" + strconv.FormatFloat(p*100, 'g', -1, 64)
}

// OutputVariables returns the statistics of e restricted to its landmask.
func (e *Estimation) OutputVariables() ([]OutputVariable, error) {
	type v struct {
		name, long string
		g          *Grid
	}
	vars := []v{
		{"average", "ensemble average of aquifer thickness", e.Stats.Mean},
		{"variance", "ensemble variance of aquifer thickness", e.Stats.Variance},
		{"standard_deviation", "ensemble standard deviation of aquifer thickness", e.Stats.StandardDeviation},
	}
	for _, p := range e.Stats.PercentileLevels() {
		vars = append(vars, v{PercentileName(p), fmt.Sprintf("ensemble percentile %g of aquifer thickness", p), e.Stats.Percentiles[p]})
	}
	if e.Corrected != nil {
		vars = append(vars, v{"average_corrected", "aquifer thickness corrected to Margat and van der Gun (2013)", e.Corrected.Thickness})
	}
	o := make([]OutputVariable, len(vars))
	for i, x := range vars {
		g, err := IfThen(e.Landmask, x.g)
		if err != nil {
			return nil, err
		}
		o[i] = OutputVariable{Name: x.name, Units: "m", LongName: x.long, Grid: g}
	}
	return o, nil
}
