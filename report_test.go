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
	"testing"
)

func TestGroundwaterProperties(t *testing.T) {
	thickness := testGrid(t, 2, 2, 10, nd, 30, 40)
	kSat := testGrid(t, 2, 2, 1, 2, nd, 4)
	sy := NewGridValue(thickness.Geometry, 0.2)
	landmask := NewMaskValue(thickness.Geometry, true)
	landmask.Cells[3] = false

	p, err := NewGroundwaterProperties(thickness, kSat, sy, landmask)
	if err != nil {
		t.Fatal(err)
	}
	compareGrids(t, p.Thickness, testGrid(t, 2, 2, 10, nd, 30, nd), testTolerance)
	compareGrids(t, p.SaturatedConductivity, testGrid(t, 2, 2, 1, nd, nd, nd), testTolerance)
	compareGrids(t, p.SpecificYield, testGrid(t, 2, 2, 0.2, nd, 0.2, nd), testTolerance)

	vars := p.OutputVariables()
	want := []struct{ name, units string }{
		{"saturated_conductivity", "m/day"},
		{"specific_yield", "1"},
		{"thickness", "m"},
	}
	for i, w := range want {
		if vars[i].Name != w.name || vars[i].Units != w.units {
			t.Errorf("variable %d: have %s [%s], want %s [%s]", i, vars[i].Name, vars[i].Units, w.name, w.units)
		}
	}

	if _, err = NewGroundwaterProperties(thickness, NewGrid(testGeometry(1, 1)), sy, nil); err == nil {
		t.Error("mismatched geometries should fail")
	}
}
