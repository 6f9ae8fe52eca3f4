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
	"os"
	"sort"

	"github.com/ctessum/cdf"
)

// Coordinate variable names that are recognized, y first.
var coordinateNames = [][2]string{
	{"lat", "lon"},
	{"latitude", "longitude"},
	{"y", "x"},
}

// ArcDegreeCellSize rounds a cell size in degrees to 1/100 arc second,
// removing the rounding error of cell sizes stored in single precision.
func ArcDegreeCellSize(cs float64) float64 {
	return math.Round(cs*360000) / 360000
}

// netcdfFile is an open NetCDF file.
type netcdfFile struct {
	path string
	ff   *os.File
	f    *cdf.File
}

func openNetCDF(path string) (*netcdfFile, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aquifer: opening NetCDF file: %w", err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("aquifer: reading NetCDF file %s: %w", path, err)
	}
	return &netcdfFile{path: path, ff: ff, f: f}, nil
}

func (n *netcdfFile) Close() error { return n.ff.Close() }

func (n *netcdfFile) hasVariable(v string) bool {
	for _, name := range n.f.Header.Variables() {
		if name == v {
			return true
		}
	}
	return false
}

// read returns all values of variable v as float64.
func (n *netcdfFile) read(v string) ([]float64, error) {
	if !n.hasVariable(v) {
		return nil, fmt.Errorf("aquifer: NetCDF file %s has no variable %s", n.path, v)
	}
	size := 1
	for _, l := range n.f.Header.Lengths(v) {
		size *= l
	}
	tmp := n.f.Header.ZeroValue(v, size)
	if _, err := n.f.Reader(v, nil, nil).Read(tmp); err != nil {
		return nil, fmt.Errorf("aquifer: reading variable %s from %s: %w", v, n.path, err)
	}
	return toFloat64(tmp)
}

func toFloat64(d interface{}) ([]float64, error) {
	var o []float64
	switch t := d.(type) {
	case []float64:
		return t, nil
	case []float32:
		o = make([]float64, len(t))
		for i, v := range t {
			o[i] = float64(v)
		}
	case []int32:
		o = make([]float64, len(t))
		for i, v := range t {
			o[i] = float64(v)
		}
	case []int16:
		o = make([]float64, len(t))
		for i, v := range t {
			o[i] = float64(v)
		}
	case []uint8:
		o = make([]float64, len(t))
		for i, v := range t {
			o[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("aquifer: unsupported NetCDF data type %T", d)
	}
	return o, nil
}

// fillValues returns the missing value markers of variable v.
func (n *netcdfFile) fillValues(v string) []float64 {
	var o []float64
	for _, a := range []string{"_FillValue", "missing_value"} {
		if val := n.f.Header.GetAttribute(v, a); val != nil {
			if f, err := toFloat64(val); err == nil {
				o = append(o, f...)
			}
		}
	}
	return o
}

// coordinates returns the names of the y and x coordinate variables of
// the two dimensional variable v, which may have a leading dimension of
// length one (e.g., time).
func (n *netcdfFile) coordinates(v string) (y, x string, err error) {
	dims := n.f.Header.Dimensions(v)
	lengths := n.f.Header.Lengths(v)
	switch {
	case len(dims) == 2:
	case len(dims) == 3 && lengths[0] == 1:
		dims = dims[1:]
	default:
		return "", "", fmt.Errorf("aquifer: variable %s in %s has dimensions %v; it needs to be two dimensional", v, n.path, dims)
	}
	return dims[0], dims[1], nil
}

// geometry derives the grid geometry of variable v from its coordinate
// variables. flip is true if the y coordinates increase, i.e. the first
// row of the data is the southern-most one.
func (n *netcdfFile) geometry(v string, arcDegree bool) (g GridGeometry, flip bool, err error) {
	yName, xName, err := n.coordinates(v)
	if err != nil {
		return g, false, err
	}
	ys, err := n.read(yName)
	if err != nil {
		return g, false, err
	}
	xs, err := n.read(xName)
	if err != nil {
		return g, false, err
	}
	if len(xs) < 2 || len(ys) < 2 {
		return g, false, fmt.Errorf("aquifer: %s needs at least two coordinates in each direction", n.path)
	}
	cs := math.Abs(xs[1] - xs[0])
	if arcDegree {
		cs = ArcDegreeCellSize(cs)
	}
	g = GridGeometry{
		X0:       math.Min(xs[0], xs[len(xs)-1]) - cs/2,
		CellSize: cs,
		Rows:     len(ys),
		Cols:     len(xs),
	}
	flip = ys[len(ys)-1] > ys[0]
	g.Y0 = math.Max(ys[0], ys[len(ys)-1]) + cs/2
	return g, flip, g.Validate()
}

// ReadGeometry returns the geometry of the grid of variable v in the
// NetCDF file at path. If arcDegree is true, the cell size is rounded
// with ArcDegreeCellSize.
func ReadGeometry(path, v string, arcDegree bool) (GridGeometry, error) {
	n, err := openNetCDF(path)
	if err != nil {
		return GridGeometry{}, err
	}
	defer n.Close()
	g, _, err := n.geometry(v, arcDegree)
	return g, err
}

// ReadNetCDF reads variable v from the classic format NetCDF file at path.
// The grid of the variable must match geometry. Rows are reordered
// north to south if needed. Missing values, NaN and values at or below
// NoData become undefined.
func ReadNetCDF(path, v string, geometry GridGeometry) (*Grid, error) {
	n, err := openNetCDF(path)
	if err != nil {
		return nil, err
	}
	defer n.Close()

	g, flip, err := n.geometry(v, false)
	if err != nil {
		return nil, err
	}
	// The file's cell size may carry single precision rounding error.
	g.CellSize = geometry.CellSize
	g.X0 = correctEdge(g.X0, geometry.X0, geometry.CellSize)
	g.Y0 = correctEdge(g.Y0, geometry.Y0, geometry.CellSize)
	if err := checkGeometry(geometry, g); err != nil {
		return nil, fmt.Errorf("aquifer: reading %s from %s: %w", v, path, err)
	}

	data, err := n.read(v)
	if err != nil {
		return nil, err
	}
	fill := n.fillValues(v)
	o := NewGrid(geometry)
	for i, val := range data {
		if isFill(val, fill) || IsNoData(val) {
			continue
		}
		r, c := i/geometry.Cols, i%geometry.Cols
		if flip {
			r = geometry.Rows - 1 - r
		}
		o.Data.Elements[geometry.Index(r, c)] = val
	}
	return o, nil
}

// correctEdge returns want if got is within a thousandth of a cell of it.
func correctEdge(got, want, cs float64) float64 {
	if math.Abs(got-want) < cs*1e-3 {
		return want
	}
	return got
}

func isFill(v float64, fill []float64) bool {
	for _, f := range fill {
		if v == f || float32(v) == float32(f) {
			return true
		}
	}
	return false
}

// OutputVariable is a grid to be written to a NetCDF file.
type OutputVariable struct {
	Name, Units, LongName string
	Grid                  *Grid
}

// WriteNetCDF writes the variables to a new classic format NetCDF file at
// path, with latitude and longitude coordinates and the given global
// attributes. Undefined cells are written as NoData.
func WriteNetCDF(path string, geometry GridGeometry, vars []OutputVariable, attributes map[string]string) error {
	for _, v := range vars {
		if err := checkGeometry(geometry, v.Grid.Geometry); err != nil {
			return fmt.Errorf("aquifer: writing %s: %w", v.Name, err)
		}
	}
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{geometry.Rows, geometry.Cols})

	// Sort the attribute names so they write in the same order every time.
	names := make([]string, 0, len(attributes))
	for k := range attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		h.AddAttribute("", k, attributes[k])
	}
	h.AddAttribute("", "Conventions", "CF-1.6")

	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "standard_name", "latitude")
	h.AddAttribute("lat", "long_name", "latitude")
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "standard_name", "longitude")
	h.AddAttribute("lon", "long_name", "longitude")
	h.AddAttribute("lon", "units", "degrees_east")

	for _, v := range vars {
		h.AddVariable(v.Name, []string{"lat", "lon"}, []float32{0})
		h.AddAttribute(v.Name, "units", v.Units)
		long := v.LongName
		if long == "" {
			long = v.Name
		}
		h.AddAttribute(v.Name, "long_name", long)
		h.AddAttribute(v.Name, "_FillValue", []float32{float32(NoData)})
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("aquifer: creating NetCDF file: %w", err)
	}
	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		w.Close()
		return fmt.Errorf("aquifer: writing NetCDF header to %s: %w", path, err)
	}

	lat := make([]float64, geometry.Rows)
	for r := range lat {
		lat[r] = geometry.CellCenter(r, 0).Y
	}
	lon := make([]float64, geometry.Cols)
	for c := range lon {
		lon[c] = geometry.CellCenter(0, c).X
	}
	if err = writeAll(f, "lat", lat); err != nil {
		w.Close()
		return fmt.Errorf("aquifer: writing latitude to %s: %w", path, err)
	}
	if err = writeAll(f, "lon", lon); err != nil {
		w.Close()
		return fmt.Errorf("aquifer: writing longitude to %s: %w", path, err)
	}
	for _, v := range vars {
		if err = writeNCF(f, v.Name, v.Grid); err != nil {
			w.Close()
			return fmt.Errorf("aquifer: writing variable %s to %s: %w", v.Name, path, err)
		}
	}
	if err = cdf.UpdateNumRecs(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func writeNCF(f *cdf.File, v string, g *Grid) error {
	data32 := make([]float32, len(g.Data.Elements))
	for i, e := range g.Data.Elements {
		if IsNoData(e) {
			data32[i] = float32(NoData)
		} else {
			data32[i] = float32(e)
		}
	}
	return writeAll(f, v, data32)
}

// writeAll writes data to the whole extent of variable v. The strider of
// a writer created without bounds stops one element short.
func writeAll(f *cdf.File, v string, data interface{}) error {
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	_, err := f.Writer(v, start, end).Write(data)
	return err
}
