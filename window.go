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
)

// windowCell is one cell of a moving window, relative to its center.
type windowCell struct {
	dr, dc int
	w      float64 // fraction of the cell area inside the window
}

// window returns the cells of a square window with the given edge length
// (in map units) centered on a cell of size cellSize.
func window(length, cellSize float64) ([]windowCell, error) {
	if !(length > 0) {
		return nil, fmt.Errorf("aquifer: window length should be >0 but is %g", length)
	}
	h := length / 2
	n := int(math.Ceil(h/cellSize + 0.5))
	overlap := func(d int) float64 {
		lo := math.Max(-h, (float64(d)-0.5)*cellSize)
		hi := math.Min(h, (float64(d)+0.5)*cellSize)
		return math.Max(0, hi-lo) / cellSize
	}
	var o []windowCell
	for dr := -n; dr <= n; dr++ {
		fy := overlap(dr)
		if fy <= 0 {
			continue
		}
		for dc := -n; dc <= n; dc++ {
			fx := overlap(dc)
			if fx <= 0 {
				continue
			}
			o = append(o, windowCell{dr: dr, dc: dc, w: fx * fy})
		}
	}
	return o, nil
}

// WindowAverage returns the area-weighted average of the defined cells
// in a square window of the given edge length (in map units) around each
// cell. Cells partly inside the window count by the fraction of their area
// that is inside it. A cell is undefined in the result only if its whole
// window is undefined.
func WindowAverage(g *Grid, length float64) (*Grid, error) {
	win, err := window(length, g.Geometry.CellSize)
	if err != nil {
		return nil, err
	}
	geo := g.Geometry
	o := NewGrid(geo)
	for r := 0; r < geo.Rows; r++ {
		for c := 0; c < geo.Cols; c++ {
			var sum, wsum float64
			for _, wc := range win {
				rr, cc := r+wc.dr, c+wc.dc
				if !geo.Inside(rr, cc) {
					continue
				}
				v := g.Data.Elements[geo.Index(rr, cc)]
				if IsNoData(v) {
					continue
				}
				sum += v * wc.w
				wsum += wc.w
			}
			if wsum > 0 {
				o.Data.Elements[geo.Index(r, c)] = sum / wsum
			}
		}
	}
	return o, nil
}

// WindowMajority returns the most common defined value in a square window
// of the given edge length (in map units) around each cell, where cells
// partly inside the window count by the fraction of their area inside it.
// Ties go to the largest value. A cell is undefined in the result only if
// its whole window is undefined.
func WindowMajority(g *Grid, length float64) (*Grid, error) {
	win, err := window(length, g.Geometry.CellSize)
	if err != nil {
		return nil, err
	}
	type tally struct{ v, w float64 }
	geo := g.Geometry
	o := NewGrid(geo)
	counts := make([]tally, 0, len(win))
	for r := 0; r < geo.Rows; r++ {
		for c := 0; c < geo.Cols; c++ {
			counts = counts[:0]
			for _, wc := range win {
				rr, cc := r+wc.dr, c+wc.dc
				if !geo.Inside(rr, cc) {
					continue
				}
				v := g.Data.Elements[geo.Index(rr, cc)]
				if IsNoData(v) {
					continue
				}
				found := false
				for i := range counts {
					if counts[i].v == v {
						counts[i].w += wc.w
						found = true
						break
					}
				}
				if !found {
					counts = append(counts, tally{v: v, w: wc.w})
				}
			}
			if len(counts) == 0 {
				continue
			}
			best := counts[0]
			for _, t := range counts[1:] {
				if t.w > best.w || (t.w == best.w && t.v > best.v) {
					best = t
				}
			}
			o.Data.Elements[geo.Index(r, c)] = best.v
		}
	}
	return o, nil
}

// Dilate returns a mask that is true wherever a square window of the given
// edge length (in map units) contains at least one true cell of m. It is
// the window majority of a map that is either true or undefined.
func Dilate(m *Mask, length float64) (*Mask, error) {
	g, err := WindowMajority(m.Grid(1), length)
	if err != nil {
		return nil, err
	}
	return g.Defined(), nil
}
