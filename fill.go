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

// FillMethod selects how values are extrapolated into undefined cells.
type FillMethod string

const (
	// WindowAverageFill extrapolates with a weighted sum of window
	// averages at several window lengths.
	WindowAverageFill FillMethod = "windowaverage"

	// InverseDistanceFill extrapolates with inverse distance weighting
	// of the nearest defined cells. It is much slower than
	// WindowAverageFill.
	InverseDistanceFill FillMethod = "inversedistance"
)

// FillConfig holds the parameters of the weighted spatial fill.
type FillConfig struct {
	Method FillMethod

	// Weights and Windows hold the weight and the window edge length
	// (in map units) of each window average. They are also used to
	// calculate the weight of the extrapolated values.
	Weights []float64
	Windows []float64

	// IDPower, IDRadius (in map units) and IDMaxPoints parametrize
	// InverseDistanceFill.
	IDPower     float64
	IDRadius    float64
	IDMaxPoints int
}

// DefaultFillConfig returns the default fill parameters.
func DefaultFillConfig() FillConfig {
	return FillConfig{
		Method:      WindowAverageFill,
		Weights:     []float64{0.70, 0.25, 0.05},
		Windows:     []float64{1.50, 2.00, 2.50},
		IDPower:     2,
		IDRadius:    1.50,
		IDMaxPoints: 25,
	}
}

// Validate checks the fill parameters.
func (c FillConfig) Validate() error {
	switch c.Method {
	case WindowAverageFill, InverseDistanceFill:
	default:
		return fmt.Errorf("aquifer: invalid fill method %q", c.Method)
	}
	if len(c.Weights) == 0 || len(c.Weights) != len(c.Windows) {
		return fmt.Errorf("aquifer: fill needs one weight per window but has %d weights and %d windows", len(c.Weights), len(c.Windows))
	}
	for _, w := range c.Windows {
		if !(w > 0) {
			return fmt.Errorf("aquifer: fill window lengths should be >0 but one is %g", w)
		}
	}
	if c.Method == InverseDistanceFill && (!(c.IDRadius > 0) || c.IDMaxPoints < 1) {
		return fmt.Errorf("aquifer: inverse distance fill needs a radius >0 and at least one point")
	}
	return nil
}

// Fill combines withMV, a field with undefined cells, and withoutMV, a
// fallback field. Defined cells of withMV are kept. Other cells get a blend
// of a value extrapolated from withMV and the fallback value, weighted by
// the local density of defined cells in withMV. Any cell still undefined
// gets the fallback value.
func Fill(withMV, withoutMV *Grid, cfg FillConfig) (*Grid, error) {
	if err := checkGeometry(withMV.Geometry, withoutMV.Geometry); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var intrpl *Grid
	var err error
	if cfg.Method == InverseDistanceFill {
		intrpl, err = inverseDistance(withMV, cfg.IDPower, cfg.IDRadius, cfg.IDMaxPoints)
	} else {
		intrpl, err = weightedWindowAverage(withMV, cfg.Weights, cfg.Windows)
	}
	if err != nil {
		return nil, err
	}
	if intrpl, err = Cover(withMV, intrpl); err != nil {
		return nil, err
	}

	indicator := withMV.Defined().Indicator()
	weight := NewGridValue(withMV.Geometry, 0)
	for i, w := range cfg.Weights {
		scaled := indicator.Apply(func(x float64) float64 { return w * x })
		wa, err := WindowAverage(scaled, cfg.Windows[i])
		if err != nil {
			return nil, err
		}
		if weight, err = Combine(weight, wa, func(a, b float64) float64 { return a + b }); err != nil {
			return nil, err
		}
	}
	weight = weight.Apply(func(x float64) float64 { return math.Max(0, math.Min(1, x)) }).CoverValue(0)

	merged := NewGrid(withMV.Geometry)
	for i, v := range intrpl.Data.Elements {
		f := withoutMV.Data.Elements[i]
		if IsNoData(v) || IsNoData(f) {
			continue
		}
		w := weight.Data.Elements[i]
		merged.Data.Elements[i] = w*v + (1-w)*f
	}
	filled, err := Cover(withMV, merged)
	if err != nil {
		return nil, err
	}
	return Cover(filled, withoutMV)
}

// weightedWindowAverage returns the sum of weights[i] times the window
// average of g at windows[i]. A cell is undefined if any of the window
// averages is undefined there.
func weightedWindowAverage(g *Grid, weights, windows []float64) (*Grid, error) {
	sum := NewGridValue(g.Geometry, 0)
	for i, w := range weights {
		wa, err := WindowAverage(g, windows[i])
		if err != nil {
			return nil, err
		}
		if sum, err = Combine(sum, wa, func(a, b float64) float64 { return a + w*b }); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// inverseDistance fills the undefined cells of g with the inverse distance
// weighted average of at most maxPoints of the nearest defined cells
// within radius. Cells without defined cells in range stay undefined.
func inverseDistance(g *Grid, power, radius float64, maxPoints int) (*Grid, error) {
	geo := g.Geometry
	n := int(math.Ceil(radius / geo.CellSize))
	type candidate struct {
		d, v float64
	}
	o := g.Copy()
	var cands []candidate
	for r := 0; r < geo.Rows; r++ {
		for c := 0; c < geo.Cols; c++ {
			if !IsNoData(g.At(r, c)) {
				continue
			}
			cands = cands[:0]
			for rr := r - n; rr <= r+n; rr++ {
				for cc := c - n; cc <= c+n; cc++ {
					if !geo.Inside(rr, cc) {
						continue
					}
					v := g.At(rr, cc)
					if IsNoData(v) {
						continue
					}
					d := math.Hypot(float64(rr-r), float64(cc-c)) * geo.CellSize
					if d <= radius {
						cands = append(cands, candidate{d: d, v: v})
					}
				}
			}
			if len(cands) == 0 {
				continue
			}
			sort.Slice(cands, func(i, j int) bool { return cands[i].d < cands[j].d })
			if len(cands) > maxPoints {
				cands = cands[:maxPoints]
			}
			var sum, wsum float64
			for _, cd := range cands {
				w := 1 / math.Pow(cd.d, power)
				sum += w * cd.v
				wsum += w
			}
			o.Set(r, c, sum/wsum)
		}
	}
	return o, nil
}
