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
	"sort"
)

// Aggregator accumulates per-cell statistics of an ensemble of
// realizations. It is not safe for concurrent use.
type Aggregator struct {
	geometry GridGeometry
	n        int

	// mean and m2 hold the running mean and sum of squared
	// deviations of each cell.
	mean, m2 []float64

	// undefined marks cells that were undefined in any realization.
	undefined []bool

	// samples holds the realizations when percentiles are needed.
	keep    bool
	samples [][]float64
}

// NewAggregator returns an Aggregator for grids with geometry g.
// keepSamples must be true for percentiles to be calculated.
func NewAggregator(g GridGeometry, keepSamples bool) *Aggregator {
	return &Aggregator{
		geometry:  g,
		mean:      make([]float64, g.Len()),
		m2:        make([]float64, g.Len()),
		undefined: make([]bool, g.Len()),
		keep:      keepSamples,
	}
}

// N returns the number of realizations added so far.
func (a *Aggregator) N() int { return a.n }

// Add adds a realization to the ensemble.
func (a *Aggregator) Add(g *Grid) error {
	if err := checkGeometry(a.geometry, g.Geometry); err != nil {
		return err
	}
	a.n++
	n := float64(a.n)
	for i, v := range g.Data.Elements {
		if IsNoData(v) {
			a.undefined[i] = true
			continue
		}
		d := v - a.mean[i]
		a.mean[i] += d / n
		a.m2[i] += d * (v - a.mean[i])
	}
	if a.keep {
		s := make([]float64, len(g.Data.Elements))
		copy(s, g.Data.Elements)
		a.samples = append(a.samples, s)
	}
	return nil
}

// Statistics holds the per-cell statistics of an ensemble.
type Statistics struct {
	N int

	Mean *Grid

	// Variance is the mean squared deviation from the mean, normalized
	// by N.
	Variance *Grid

	// TotalVariance is Variance*N.
	TotalVariance *Grid

	// StandardDeviation is sqrt(TotalVariance/(N-1)).
	StandardDeviation *Grid

	// Percentiles holds a grid for each requested percentile (0-1).
	Percentiles map[float64]*Grid
}

// PercentileLevels returns the percentiles held by s in increasing order.
func (s *Statistics) PercentileLevels() []float64 {
	o := make([]float64, 0, len(s.Percentiles))
	for p := range s.Percentiles {
		o = append(o, p)
	}
	sort.Float64s(o)
	return o
}

// Finalize calculates the ensemble statistics. percentiles (0-1) may be
// empty. A cell that was undefined in any realization is undefined in
// every statistic.
func (a *Aggregator) Finalize(percentiles []float64) (*Statistics, error) {
	if a.n < 2 {
		return nil, &InsufficientSampleError{N: a.n}
	}
	if len(percentiles) > 0 && !a.keep {
		return nil, fmt.Errorf("aquifer: percentiles were requested from an aggregator that does not keep samples")
	}
	n := float64(a.n)
	s := &Statistics{
		N:                 a.n,
		Mean:              NewGrid(a.geometry),
		Variance:          NewGrid(a.geometry),
		TotalVariance:     NewGrid(a.geometry),
		StandardDeviation: NewGrid(a.geometry),
		Percentiles:       make(map[float64]*Grid, len(percentiles)),
	}
	for i := range a.mean {
		if a.undefined[i] {
			continue
		}
		variance := a.m2[i] / n
		total := variance * n
		s.Mean.Data.Elements[i] = a.mean[i]
		s.Variance.Data.Elements[i] = variance
		s.TotalVariance.Data.Elements[i] = total
		s.StandardDeviation.Data.Elements[i] = math.Sqrt(total / (n - 1))
	}
	if len(percentiles) == 0 {
		return s, nil
	}
	for _, p := range percentiles {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("aquifer: percentiles should be between 0 and 1 but one is %g", p)
		}
		s.Percentiles[p] = NewGrid(a.geometry)
	}
	cell := make([]float64, a.n)
	for i := range a.mean {
		if a.undefined[i] {
			continue
		}
		for j, smp := range a.samples {
			cell[j] = smp[i]
		}
		sort.Float64s(cell)
		for _, p := range percentiles {
			s.Percentiles[p].Data.Elements[i] = percentile(p, cell)
		}
	}
	return s, nil
}
