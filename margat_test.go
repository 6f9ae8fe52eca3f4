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
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testReferenceTable(t *testing.T, text string) *LookupTable {
	t.Helper()
	table, err := ParseLookupTable(strings.NewReader(text), false)
	if err != nil {
		t.Fatal(err)
	}
	table.Name = "margat"
	return table
}

func testCorrector() *MargatCorrector {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return &MargatCorrector{MargatConfig: DefaultMargatConfig(), Log: log}
}

func TestZoneMap(t *testing.T) {
	mc := testCorrector()
	t.Run("filter", func(t *testing.T) {
		raw := testGrid(t, 1, 5, 1, 2, 3, 0, 20000)
		table := testReferenceTable(t, "1 100\n2 -5\n0 10\n20000 10\n")
		zm, err := mc.ZoneMap(raw, table)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(zm.Zones, []float64{1}) {
			t.Errorf("zones: have %v, want [1]", zm.Zones)
		}
		compareGrids(t, zm.IDs, testGrid(t, 1, 5, 1, nd, nd, nd, nd), testTolerance)
		compareGrids(t, zm.Reference, testGrid(t, 1, 5, 100, nd, nd, nd, nd), testTolerance)
	})
	t.Run("extend", func(t *testing.T) {
		raw := testGrid(t, 1, 3, 1, nd, nd)
		zm, err := mc.ZoneMap(raw, testReferenceTable(t, "1 100\n"))
		if err != nil {
			t.Fatal(err)
		}
		compareGrids(t, zm.IDs, testGrid(t, 1, 3, 1, 1, nd), testTolerance)
	})
}

func TestMargatDegenerateZones(t *testing.T) {
	mc := testCorrector()
	raw := testGrid(t, 2, 4,
		1, 1, 2, 2,
		1, 1, 2, 2)
	zm, err := mc.ZoneMap(raw, testReferenceTable(t, "1 100.0\n2 50.0\n"))
	if err != nil {
		t.Fatal(err)
	}
	approx := NewGridValue(raw.Geometry, 10)
	r, err := mc.Correct(approx, zm, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Degenerate != 2 {
		t.Errorf("degenerate zones: have %d, want 2", r.Degenerate)
	}
	for _, z := range r.Zones {
		if !IsDegenerate(z.Err) {
			t.Errorf("zone %g should be degenerate", z.ID)
		}
		if z.Lo != z.Hi || different(z.Lo, math.Log(10), testTolerance) {
			t.Errorf("zone %g: lo=%g, hi=%g", z.ID, z.Lo, z.Hi)
		}
	}
	for i, v := range r.Thickness.Data.Elements {
		ref := zm.Reference.Data.Elements[i]
		if IsNoData(v) || different(v, 10, testTolerance) {
			t.Errorf("cell %d: have %g, want the approximate thickness 10", i, v)
		}
		if v > ref {
			t.Errorf("cell %d: %g is larger than reference %g", i, v, ref)
		}
	}
}

func TestMargatCorrect(t *testing.T) {
	mc := testCorrector()
	raw := NewGridValue(testGeometry(1, 5), 1)
	zm, err := mc.ZoneMap(raw, testReferenceTable(t, "1 100\n"))
	if err != nil {
		t.Fatal(err)
	}
	approx := testGrid(t, 1, 5, 1, 2, 4, 8, 1000)
	landmask := NewMaskValue(raw.Geometry, true)
	landmask.Cells[2] = false

	r, err := mc.Correct(approx, zm, landmask)
	if err != nil {
		t.Fatal(err)
	}
	if r.Degenerate != 0 {
		t.Errorf("degenerate zones: have %d, want 0", r.Degenerate)
	}
	th := r.Thickness
	if !IsNoData(th.At(0, 2)) {
		t.Errorf("cell outside the landmask should be undefined but is %g", th.At(0, 2))
	}
	// Cells below the lower percentile keep their value and the largest
	// cell is capped at the reference thickness.
	if different(th.At(0, 0), 1, testTolerance) {
		t.Errorf("smallest cell: have %g, want 1", th.At(0, 0))
	}
	if different(th.At(0, 4), 100, testTolerance) {
		t.Errorf("largest cell: have %g, want 100", th.At(0, 4))
	}
	prev := 0.
	for _, c := range []int{0, 1, 3, 4} {
		v := th.At(0, c)
		if !(v > 0) || v > 100*(1+testTolerance) {
			t.Errorf("cell %d: %g is not in (0, 100]", c, v)
		}
		if v < prev {
			t.Errorf("cell %d: correction is not monotonic", c)
		}
		prev = v
	}
}

func TestMargatZeroApproximateThickness(t *testing.T) {
	mc := testCorrector()
	raw := NewGridValue(testGeometry(2, 2), 1)
	zm, err := mc.ZoneMap(raw, testReferenceTable(t, "1 20\n"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := mc.Correct(testGrid(t, 2, 2, 0, 0, 5, 10), zm, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range r.Thickness.Data.Elements {
		if IsNoData(v) || !(v > 0) {
			t.Errorf("cell %d: have %g, want a positive thickness", i, v)
		}
	}
}

func TestExpLnRoundTrip(t *testing.T) {
	g := testGrid(t, 1, 4, 0.0001, 1, 37.5, 2500)
	compareGrids(t, g.Ln().Exp(), g, testTolerance)
}
