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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

func TestNetCDFRoundTrip(t *testing.T) {
	geo := GridGeometry{X0: 5, Y0: 52, CellSize: 0.25, Rows: 3, Cols: 4}
	a, err := NewGridFromSlice(geo, []float64{
		1, 2, 3, 4,
		nd, 0.5, 1.25, 8,
		100, 200, nd, 400,
	})
	if err != nil {
		t.Fatal(err)
	}
	b := NewGridValue(geo, 7)
	path := filepath.Join(t.TempDir(), "thickness.nc")
	err = WriteNetCDF(path, geo, []OutputVariable{
		{Name: "average", Units: "m", Grid: a},
		{Name: "variance", Units: "m2", Grid: b},
	}, map[string]string{"title": "aquifer thickness", "institution": "test"})
	if err != nil {
		t.Fatal(err)
	}

	g, err := ReadGeometry(path, "average", true)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Equal(geo) {
		t.Errorf("geometry: have %v, want %v", g, geo)
	}
	have, err := ReadNetCDF(path, "average", geo)
	if err != nil {
		t.Fatal(err)
	}
	compareGrids(t, have, a, testTolerance)
	have, err = ReadNetCDF(path, "variance", geo)
	if err != nil {
		t.Fatal(err)
	}
	compareGrids(t, have, b, testTolerance)

	n, err := openNetCDF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()
	if title, ok := n.f.Header.GetAttribute("", "title").(string); !ok || title != "aquifer thickness" {
		t.Errorf("title attribute: have %v", n.f.Header.GetAttribute("", "title"))
	}
	if units, ok := n.f.Header.GetAttribute("variance", "units").(string); !ok || units != "m2" {
		t.Errorf("units attribute: have %v", n.f.Header.GetAttribute("variance", "units"))
	}
	for _, c := range []struct {
		name string
		want []float64
	}{
		{"lat", []float64{51.875, 51.625, 51.375}},
		{"lon", []float64{5.125, 5.375, 5.625, 5.875}},
	} {
		have, err := n.read(c.name)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if len(have) != len(c.want) {
			t.Fatalf("%s: have %v, want %v", c.name, have, c.want)
		}
		for i := range have {
			if different(have[i], c.want[i], testTolerance) {
				t.Errorf("%s[%d]: have %g, want %g", c.name, i, have[i], c.want[i])
			}
		}
	}

	other := geo
	other.Cols = 5
	if _, err := ReadNetCDF(path, "average", other); !errors.Is(err, ErrGeometryMismatch) {
		t.Errorf("have error %v, want %v", err, ErrGeometryMismatch)
	}
	if _, err := ReadNetCDF(path, "missing", geo); err == nil {
		t.Error("reading a missing variable should fail")
	}
}

// writeSouthUpNetCDF writes a file whose latitude increases with the row
// index and that marks missing values with -999.
func writeSouthUpNetCDF(t *testing.T, path string) {
	t.Helper()
	h := cdf.NewHeader([]string{"latitude", "longitude"}, []int{2, 3})
	h.AddVariable("latitude", []string{"latitude"}, []float64{0})
	h.AddVariable("longitude", []string{"longitude"}, []float64{0})
	h.AddVariable("zones", []string{"latitude", "longitude"}, []float32{0})
	h.AddAttribute("zones", "_FillValue", []float32{-999})
	h.Define()
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	if err = writeAll(f, "latitude", []float64{10.5, 11.5}); err != nil {
		t.Fatal(err)
	}
	if err = writeAll(f, "longitude", []float64{0.5, 1.5, 2.5}); err != nil {
		t.Fatal(err)
	}
	if err = writeAll(f, "zones", []float32{1, 2, -999, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if err = cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
}

func TestReadNetCDFSouthUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.nc")
	writeSouthUpNetCDF(t, path)
	geo, err := ReadGeometry(path, "zones", false)
	if err != nil {
		t.Fatal(err)
	}
	want := GridGeometry{X0: 0, Y0: 12, CellSize: 1, Rows: 2, Cols: 3}
	if !geo.Equal(want) {
		t.Fatalf("geometry: have %v, want %v", geo, want)
	}
	g, err := (&NetCDFZones{Path: path, Variable: "zones"}).Rasterize(geo)
	if err != nil {
		t.Fatal(err)
	}
	wantGrid, err := NewGridFromSlice(want, []float64{4, 5, 6, 1, 2, nd})
	if err != nil {
		t.Fatal(err)
	}
	compareGrids(t, g, wantGrid, testTolerance)
}

func TestArcDegreeCellSize(t *testing.T) {
	cs := float64(float32(5. / 60))
	if have := ArcDegreeCellSize(cs); different(have, 5./60, 1e-15) {
		t.Errorf("have %.17g, want %.17g", have, 5./60)
	}
}
