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

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// NoData is the value held by undefined cells. It is the lowest
// float32 value, so it survives a round trip through single precision
// files and can never be confused with a thickness.
const NoData = -math.MaxFloat32

// IsNoData returns whether v represents an undefined cell.
func IsNoData(v float64) bool {
	return v <= NoData || math.IsNaN(v) || math.IsInf(v, 0)
}

// GridGeometry specifies the extent and resolution of a regular grid.
// Row 0 is the northern-most row and column 0 the western-most column.
type GridGeometry struct {
	// X0 and Y0 are the west and north edges of the grid.
	X0, Y0 float64

	// CellSize is the edge length of the square grid cells, in map units.
	CellSize float64

	Rows, Cols int
}

// Len returns the number of cells in the grid.
func (g GridGeometry) Len() int { return g.Rows * g.Cols }

// Index returns the one dimensional index of the given cell.
func (g GridGeometry) Index(row, col int) int { return row*g.Cols + col }

// Inside returns whether the given row and column are within the grid.
func (g GridGeometry) Inside(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// CellCenter returns the center point of the given cell.
func (g GridGeometry) CellCenter(row, col int) geom.Point {
	return geom.Point{
		X: g.X0 + (float64(col)+0.5)*g.CellSize,
		Y: g.Y0 - (float64(row)+0.5)*g.CellSize,
	}
}

// Bounds returns the spatial extent of the grid.
func (g GridGeometry) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0, Y: g.Y0 - float64(g.Rows)*g.CellSize},
		Max: geom.Point{X: g.X0 + float64(g.Cols)*g.CellSize, Y: g.Y0},
	}
}

// Validate checks whether the geometry describes a usable grid.
func (g GridGeometry) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("aquifer: grid must have at least one row and one column but has %d rows and %d columns", g.Rows, g.Cols)
	}
	if !(g.CellSize > 0) {
		return fmt.Errorf("aquifer: grid cell size should be >0 but is %g", g.CellSize)
	}
	return nil
}

const geometryTolerance = 1e-9

// Equal returns whether g and o describe the same grid.
func (g GridGeometry) Equal(o GridGeometry) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols &&
		scalar.EqualWithinAbsOrRel(g.CellSize, o.CellSize, geometryTolerance, geometryTolerance) &&
		scalar.EqualWithinAbsOrRel(g.X0, o.X0, geometryTolerance, geometryTolerance) &&
		scalar.EqualWithinAbsOrRel(g.Y0, o.Y0, geometryTolerance, geometryTolerance)
}

func (g GridGeometry) String() string {
	return fmt.Sprintf("%dx%d cells of size %g starting at (%g, %g)", g.Rows, g.Cols, g.CellSize, g.X0, g.Y0)
}

// Grid is a two dimensional field of values over a GridGeometry.
// Undefined cells hold NoData.
type Grid struct {
	Geometry GridGeometry
	Data     *sparse.DenseArray
}

// NewGrid returns a grid with every cell undefined.
func NewGrid(g GridGeometry) *Grid {
	return NewGridValue(g, NoData)
}

// NewGridValue returns a grid with every cell set to v.
func NewGridValue(g GridGeometry, v float64) *Grid {
	d := sparse.ZerosDense(g.Rows, g.Cols)
	if v != 0 {
		for i := range d.Elements {
			d.Elements[i] = v
		}
	}
	return &Grid{Geometry: g, Data: d}
}

// NewGridFromSlice returns a grid holding a copy of the row-major values
// in v. NaN and infinite values become undefined.
func NewGridFromSlice(g GridGeometry, v []float64) (*Grid, error) {
	if len(v) != g.Len() {
		return nil, fmt.Errorf("aquifer: %d values do not fit a grid of %d cells", len(v), g.Len())
	}
	o := NewGrid(g)
	for i, x := range v {
		if !IsNoData(x) {
			o.Data.Elements[i] = x
		}
	}
	return o, nil
}

// At returns the value of the given cell.
func (g *Grid) At(row, col int) float64 {
	return g.Data.Elements[g.Geometry.Index(row, col)]
}

// Set sets the value of the given cell. Non-finite values make the cell
// undefined.
func (g *Grid) Set(row, col int, v float64) {
	if IsNoData(v) {
		v = NoData
	}
	g.Data.Elements[g.Geometry.Index(row, col)] = v
}

// Copy returns a deep copy of g.
func (g *Grid) Copy() *Grid {
	return &Grid{Geometry: g.Geometry, Data: g.Data.Copy()}
}

// Defined returns a mask that is true where g holds a value.
func (g *Grid) Defined() *Mask {
	m := NewMask(g.Geometry)
	for i, v := range g.Data.Elements {
		m.Cells[i] = !IsNoData(v)
	}
	return m
}

// Values returns the defined values of g in row-major order.
func (g *Grid) Values() []float64 {
	var o []float64
	for _, v := range g.Data.Elements {
		if !IsNoData(v) {
			o = append(o, v)
		}
	}
	return o
}

// Apply returns the result of f on every defined cell of g.
// Undefined cells stay undefined and non-finite results become undefined.
func (g *Grid) Apply(f func(float64) float64) *Grid {
	o := NewGrid(g.Geometry)
	for i, v := range g.Data.Elements {
		if IsNoData(v) {
			continue
		}
		if r := f(v); !IsNoData(r) {
			o.Data.Elements[i] = r
		}
	}
	return o
}

// CoverValue returns g with its undefined cells set to v.
func (g *Grid) CoverValue(v float64) *Grid {
	o := g.Copy()
	for i, x := range o.Data.Elements {
		if IsNoData(x) {
			o.Data.Elements[i] = v
		}
	}
	return o
}

// MaxValue returns max(g, v) cell by cell.
func (g *Grid) MaxValue(v float64) *Grid {
	return g.Apply(func(x float64) float64 { return math.Max(x, v) })
}

// MinValue returns min(g, v) cell by cell.
func (g *Grid) MinValue(v float64) *Grid {
	return g.Apply(func(x float64) float64 { return math.Min(x, v) })
}

// Ln returns the natural logarithm of g. Non-positive cells become undefined.
func (g *Grid) Ln() *Grid { return g.Apply(math.Log) }

// Exp returns e**g.
func (g *Grid) Exp() *Grid { return g.Apply(math.Exp) }

// RoundDown truncates every cell toward negative infinity at the given
// number of decimals.
func (g *Grid) RoundDown(decimals int) *Grid {
	s := math.Pow(10, float64(decimals))
	return g.Apply(func(x float64) float64 { return math.Floor(x*s) / s })
}

// Stats returns the number of defined cells of g and their minimum,
// maximum and mean values.
func (g *Grid) Stats() (n int, min, max, mean float64) {
	v := g.Values()
	if len(v) == 0 {
		return 0, math.NaN(), math.NaN(), math.NaN()
	}
	return len(v), floats.Min(v), floats.Max(v), floats.Sum(v) / float64(len(v))
}

// checkGeometry returns ErrGeometryMismatch if the grids do not share
// the same geometry.
func checkGeometry(g GridGeometry, others ...GridGeometry) error {
	for _, o := range others {
		if !g.Equal(o) {
			return fmt.Errorf("%w: %v vs. %v", ErrGeometryMismatch, g, o)
		}
	}
	return nil
}

// Combine returns f(a, b) for every cell that is defined in both grids.
func Combine(a, b *Grid, f func(x, y float64) float64) (*Grid, error) {
	if err := checkGeometry(a.Geometry, b.Geometry); err != nil {
		return nil, err
	}
	o := NewGrid(a.Geometry)
	for i, x := range a.Data.Elements {
		y := b.Data.Elements[i]
		if IsNoData(x) || IsNoData(y) {
			continue
		}
		if r := f(x, y); !IsNoData(r) {
			o.Data.Elements[i] = r
		}
	}
	return o, nil
}

// Cover returns a where a is defined and b elsewhere.
func Cover(a, b *Grid) (*Grid, error) {
	if err := checkGeometry(a.Geometry, b.Geometry); err != nil {
		return nil, err
	}
	o := a.Copy()
	for i, x := range o.Data.Elements {
		if IsNoData(x) {
			o.Data.Elements[i] = b.Data.Elements[i]
		}
	}
	return o, nil
}

// IfThen returns g where m is true and undefined elsewhere.
func IfThen(m *Mask, g *Grid) (*Grid, error) {
	if err := checkGeometry(m.Geometry, g.Geometry); err != nil {
		return nil, err
	}
	o := NewGrid(g.Geometry)
	for i, ok := range m.Cells {
		if ok {
			o.Data.Elements[i] = g.Data.Elements[i]
		}
	}
	return o, nil
}

// Mask is a boolean grid. Undefined cells are false.
type Mask struct {
	Geometry GridGeometry
	Cells    []bool
}

// NewMask returns a mask with every cell false.
func NewMask(g GridGeometry) *Mask {
	return &Mask{Geometry: g, Cells: make([]bool, g.Len())}
}

// NewMaskValue returns a mask with every cell set to v.
func NewMaskValue(g GridGeometry, v bool) *Mask {
	m := NewMask(g)
	if v {
		for i := range m.Cells {
			m.Cells[i] = true
		}
	}
	return m
}

// Where returns a mask that is true where g is defined and f returns true.
func Where(g *Grid, f func(float64) bool) *Mask {
	m := NewMask(g.Geometry)
	for i, v := range g.Data.Elements {
		m.Cells[i] = !IsNoData(v) && f(v)
	}
	return m
}

// At returns the value of the given cell.
func (m *Mask) At(row, col int) bool { return m.Cells[m.Geometry.Index(row, col)] }

// Copy returns a deep copy of m.
func (m *Mask) Copy() *Mask {
	o := NewMask(m.Geometry)
	copy(o.Cells, m.Cells)
	return o
}

// Count returns the number of true cells.
func (m *Mask) Count() int {
	var n int
	for _, v := range m.Cells {
		if v {
			n++
		}
	}
	return n
}

// Narrow returns the intersection of m and o. The result is never
// larger than m.
func (m *Mask) Narrow(o *Mask) (*Mask, error) {
	if err := checkGeometry(m.Geometry, o.Geometry); err != nil {
		return nil, err
	}
	r := NewMask(m.Geometry)
	for i, v := range m.Cells {
		r.Cells[i] = v && o.Cells[i]
	}
	return r, nil
}

// Union returns the union of m and o.
func (m *Mask) Union(o *Mask) (*Mask, error) {
	if err := checkGeometry(m.Geometry, o.Geometry); err != nil {
		return nil, err
	}
	r := NewMask(m.Geometry)
	for i, v := range m.Cells {
		r.Cells[i] = v || o.Cells[i]
	}
	return r, nil
}

// Grid converts m to a grid holding v where m is true and undefined
// elsewhere.
func (m *Mask) Grid(v float64) *Grid {
	o := NewGrid(m.Geometry)
	for i, ok := range m.Cells {
		if ok {
			o.Data.Elements[i] = v
		}
	}
	return o
}

// Indicator converts m to a fully defined grid of ones and zeros.
func (m *Mask) Indicator() *Grid {
	o := NewGridValue(m.Geometry, 0)
	for i, ok := range m.Cells {
		if ok {
			o.Data.Elements[i] = 1
		}
	}
	return o
}
