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
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // png and jpg output
)

// gridXYZ adapts a Grid to plotter.GridXYZ. Plot rows run south to north.
type gridXYZ struct{ g *Grid }

func (x gridXYZ) Dims() (c, r int) { return x.g.Geometry.Cols, x.g.Geometry.Rows }

func (x gridXYZ) Z(c, r int) float64 {
	v := x.g.At(x.g.Geometry.Rows-1-r, c)
	if IsNoData(v) {
		return math.NaN()
	}
	return v
}

func (x gridXYZ) X(c int) float64 { return x.g.Geometry.CellCenter(0, c).X }

func (x gridXYZ) Y(r int) float64 { return x.g.Geometry.CellCenter(x.g.Geometry.Rows-1-r, 0).Y }

// QuickLook saves a heat map of g to file, in a format chosen by the file
// extension (e.g., .png, .pdf, .svg). Undefined cells are transparent.
// If logScale is true the natural logarithm of g is shown instead.
func QuickLook(g *Grid, title, file string, logScale bool) error {
	if logScale {
		g = g.Ln()
	}
	n, min, max, _ := g.Stats()
	if n == 0 {
		return fmt.Errorf("aquifer: quick look %s: grid has no defined cells", file)
	}
	if max == min {
		max = min + 1
	}
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(min)
	cm.SetMax(max)

	h := plotter.NewHeatMap(gridXYZ{g: g}, cm.Palette(255))
	h.Min, h.Max = min, max
	h.NaN = color.Transparent
	h.Rasterized = true

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"
	p.Add(h)

	w := vg.Length(g.Geometry.Cols) * vg.Millimeter
	w = vg.Length(math.Max(math.Min(float64(w), float64(30*vg.Centimeter)), float64(10*vg.Centimeter)))
	ht := w * vg.Length(float64(g.Geometry.Rows)/float64(g.Geometry.Cols))
	ht = vg.Length(math.Max(math.Min(float64(ht), float64(30*vg.Centimeter)), float64(8*vg.Centimeter)))
	if err := p.Save(w, ht, file); err != nil {
		return fmt.Errorf("aquifer: saving quick look %s: %w", file, err)
	}
	return nil
}
