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
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

type zoneRecord struct {
	geom.Polygon
	MARGAT float64
}

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}, {X: x0, Y: y0}}}
}

func writeZoneShapefile(t *testing.T, records ...zoneRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aquifers.shp")
	e, err := shp.NewEncoder(path, zoneRecord{})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if err = e.Encode(r); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()
	return path
}

func TestShapefileZones(t *testing.T) {
	path := writeZoneShapefile(t,
		zoneRecord{Polygon: square(1, 1, 3, 3), MARGAT: 1},
		zoneRecord{Polygon: square(2, 0, 4, 2), MARGAT: 2},
		zoneRecord{Polygon: square(10, 10, 11, 11), MARGAT: 3},
	)
	r, err := ZoneSource(path, "MARGAT", nil)
	if err != nil {
		t.Fatal(err)
	}
	g, err := r.Rasterize(testGeometry(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	want := testGrid(t, 4, 4,
		nd, nd, nd, nd,
		nd, 1, 1, nd,
		nd, 1, 2, 2,
		nd, nd, 2, 2)
	compareGrids(t, g, want, testTolerance)

	if _, err = (&ShapefileZones{Path: path, Attribute: "NOFIELD"}).Rasterize(testGeometry(4, 4)); err == nil {
		t.Error("a missing attribute should fail")
	}
}

func TestZoneSource(t *testing.T) {
	for _, test := range []struct {
		path string
		ok   bool
	}{
		{"zones.shp", true},
		{"zones.NC", true},
		{"zones.ncf", true},
		{"zones.tif", false},
	} {
		_, err := ZoneSource(test.path, "MARGAT", nil)
		if (err == nil) != test.ok {
			t.Errorf("%s: have error %v", test.path, err)
		}
	}
}
