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
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// SamplerConfig holds the parameters of the Monte Carlo thickness sampler.
// Values follow de Graaf et al. (2014).
type SamplerConfig struct {
	// Threshold [m] is the maximum elevation above the floodplain of
	// sedimentary basin cells.
	Threshold float64

	// ElevationMin and ElevationMax [m] bound the elevation above the
	// floodplain when calculating relative elevation.
	ElevationMin, ElevationMax float64

	// Samples is the number of Monte Carlo draws.
	Samples int

	// IncludePercentiles specifies whether per-cell percentiles of the
	// ensemble are calculated. Percentiles (0-1) lists them.
	IncludePercentiles bool
	Percentiles        []float64

	// AverageThickness maps a z-score to an average thickness [m] and
	// ZScore maps relative elevation to a z-score.
	AverageThickness *LookupTable
	ZScore           *LookupTable

	// LnCV is the coefficient of variation of the log thickness.
	LnCV float64

	// MinimumDepth [m] is the smallest thickness of a draw.
	MinimumDepth float64

	// ZMin and ZMax bound the global z-score of each draw. FMin and
	// FMax bound the z-score field.
	ZMin, ZMax float64
	FMin, FMax float64

	// ExtrapolationWindow [map units] is the window length of the
	// final extrapolation step and SmoothingWindow [map units] the
	// window length of the smoothing applied to every draw.
	ExtrapolationWindow float64
	SmoothingWindow     float64

	// Decimals is the number of decimals thickness is rounded down to.
	Decimals int

	// Seed seeds the random number generator. Draw i uses the stream
	// (Seed, i), so results do not depend on the order of draws.
	Seed uint64

	// Workers is the number of draws calculated concurrently. Values
	// < 1 use runtime.GOMAXPROCS(0).
	Workers int
}

// DefaultSamplerConfig returns the default sampler parameters. The
// lookup tables still need to be set.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Threshold:           50,
		ElevationMin:        0,
		ElevationMax:        50,
		Samples:             100,
		IncludePercentiles:  true,
		Percentiles:         []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		LnCV:                0.1,
		MinimumDepth:        0.005,
		ZMin:                -5,
		ZMax:                5,
		FMin:                -10,
		FMax:                3.75,
		ExtrapolationWindow: 0.5,
		SmoothingWindow:     0.25,
		Decimals:            2,
	}
}

// Validate checks the configuration.
func (c SamplerConfig) Validate() error {
	if c.AverageThickness == nil || c.ZScore == nil {
		return fmt.Errorf("aquifer: the average thickness and z-score lookup tables must both be specified")
	}
	if !(c.ElevationMax > c.ElevationMin) {
		return fmt.Errorf("aquifer: ElevationMax (%g) should be larger than ElevationMin (%g)", c.ElevationMax, c.ElevationMin)
	}
	if c.Samples < 1 {
		return fmt.Errorf("aquifer: Samples should be >0 but is %d", c.Samples)
	}
	if !(c.MinimumDepth > 0) {
		return fmt.Errorf("aquifer: MinimumDepth should be >0 but is %g", c.MinimumDepth)
	}
	if !(c.ZMax >= c.ZMin) || !(c.FMax >= c.FMin) {
		return fmt.Errorf("aquifer: z-score bounds are inverted")
	}
	if !(c.ExtrapolationWindow > 0) || !(c.SmoothingWindow > 0) {
		return fmt.Errorf("aquifer: window lengths should be >0")
	}
	for _, p := range c.Percentiles {
		if p < 0 || p > 1 {
			return fmt.Errorf("aquifer: percentiles should be between 0 and 1 but one is %g", p)
		}
	}
	return nil
}

// SamplerInputs holds the input fields of the sampler. All grids must
// share the same geometry.
type SamplerInputs struct {
	// DEMAverage and DEMFloodplain [m] are the average and floodplain
	// elevation of each cell.
	DEMAverage, DEMFloodplain *Grid

	// LDD is the local drain direction network.
	LDD *Grid

	// Mask optionally narrows the landmask.
	Mask *Mask
}

// SamplerState holds the fields derived once by Setup and shared read-only
// by all draws.
type SamplerState struct {
	Config   SamplerConfig
	Geometry GridGeometry

	// Landmask is where the drainage network is defined.
	Landmask *Mask

	// Extent is the sedimentary basin extent.
	Extent *Mask

	// F is the z-score field, defined within Extent.
	F *Grid

	Clamps *ClampCounter

	Log logrus.FieldLogger
}

// Sample is one Monte Carlo realization.
type Sample struct {
	Index int

	// Z is the global z-score of the draw and Davg [m] the average
	// thickness it maps to.
	Z, Davg float64

	// Thickness [m] is the thickness field of the draw.
	Thickness *Grid
}

// Setup derives the sedimentary basin extent and the z-score field from
// the inputs. log may be nil.
func Setup(cfg SamplerConfig, in SamplerInputs, log logrus.FieldLogger) (*SamplerState, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if in.DEMAverage == nil || in.DEMFloodplain == nil || in.LDD == nil {
		return nil, fmt.Errorf("aquifer: sampler setup needs average elevation, floodplain elevation and drainage direction grids")
	}
	geo := in.DEMAverage.Geometry
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if err := checkGeometry(geo, in.DEMFloodplain.Geometry, in.LDD.Geometry); err != nil {
		return nil, err
	}
	s := &SamplerState{Config: cfg, Geometry: geo, Clamps: new(ClampCounter), Log: log}

	log.Info("identifying the cells of the sedimentary basins")
	demAvg := in.DEMAverage.MaxValue(0).CoverValue(0)
	demFP := in.DEMFloodplain.MaxValue(0)
	ldd := RepairLDD(in.LDD)
	s.Landmask = ldd.Defined()
	if in.Mask != nil {
		var err error
		if s.Landmask, err = s.Landmask.Narrow(in.Mask); err != nil {
			return nil, err
		}
	}

	elevF, err := Combine(demAvg, demFP, func(a, f float64) float64 { return a - f })
	if err != nil {
		return nil, err
	}
	extent := Where(elevF, func(v float64) bool { return v < cfg.Threshold })
	if extent, err = Dilate(extent, 3*geo.CellSize); err != nil {
		return nil, err
	}
	path, err := FlowPath(ldd, extent)
	if err != nil {
		return nil, err
	}
	if s.Extent, err = extent.Union(path); err != nil {
		return nil, err
	}

	log.Info("calculating relative elevation and the z-score field")
	if elevF, err = IfThen(s.Extent, elevF); err != nil {
		return nil, err
	}
	rel := elevF.Apply(func(v float64) float64 {
		v = clamp(v, cfg.ElevationMin, cfg.ElevationMax, &s.Clamps.RelativeElevation)
		return 1 - (v-cfg.ElevationMin)/(cfg.ElevationMax-cfg.ElevationMin)
	})
	f, missing := cfg.ZScore.LookupGrid(rel)
	s.Clamps.MissingLookup.Add(int64(missing))
	s.F = f.Apply(func(v float64) float64 {
		return clamp(v, cfg.FMin, cfg.FMax, &s.Clamps.ZScoreField)
	})

	log.WithFields(logrus.Fields{
		"landmask_cells": s.Landmask.Count(),
		"basin_cells":    s.Extent.Count(),
	}).Info("finished sampler setup")
	return s, nil
}

// Draw calculates realization i. Draws are independent of each other and
// may run concurrently.
func (s *SamplerState) Draw(i int) (*Sample, error) {
	cfg := s.Config
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(cfg.Seed, uint64(i))}
	z := clamp(normal.Rand(), cfg.ZMin, cfg.ZMax, &s.Clamps.ZScore)

	davg, err := cfg.AverageThickness.Lookup(z)
	if err != nil {
		return nil, fmt.Errorf("aquifer: draw %d: %w", i, err)
	}
	if !(davg > 0) {
		return nil, fmt.Errorf("aquifer: draw %d: average thickness %g for z-score %g should be >0", i, davg, z)
	}
	lnDavg := math.Log(davg)
	lnMin := math.Log(cfg.MinimumDepth)

	lnD := s.F.Apply(func(f float64) float64 {
		return math.Max(lnMin, f*(cfg.LnCV*lnDavg)+lnDavg)
	})

	// Extrapolate into cells outside the sedimentary basins.
	cs := s.Geometry.CellSize
	steps := []struct {
		window  float64
		floored bool
	}{
		{window: 1.5 * cs},
		{window: 3 * cs, floored: true},
		{window: cfg.ExtrapolationWindow, floored: true},
	}
	for _, step := range steps {
		src := lnD
		if step.floored {
			src = lnD.CoverValue(lnMin)
		}
		wa, err := WindowAverage(src, step.window)
		if err != nil {
			return nil, err
		}
		if lnD, err = Cover(lnD, wa); err != nil {
			return nil, err
		}
	}

	if lnD, err = WindowAverage(lnD, cfg.SmoothingWindow); err != nil {
		return nil, err
	}
	return &Sample{
		Index:     i,
		Z:         z,
		Davg:      davg,
		Thickness: lnD.Exp().RoundDown(cfg.Decimals),
	}, nil
}
