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
	"os"
	"path/filepath"
	"testing"
)

func TestQuickLook(t *testing.T) {
	g := testGrid(t, 2, 3, 1, 10, nd, 100, 1000, 5)
	file := filepath.Join(t.TempDir(), "thickness.png")
	if err := QuickLook(g, "thickness", file, true); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Error("quick look file is empty")
	}
	if err := QuickLook(NewGrid(g.Geometry), "empty", file, false); err == nil {
		t.Error("a grid without defined cells should fail")
	}
}
