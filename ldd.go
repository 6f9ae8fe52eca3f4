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

// Pit is the local drain direction of a cell that does not drain to a
// neighbor.
const Pit = 5

// Local drain directions follow the numeric keypad layout:
//
//	7 8 9
//	4 5 6
//	1 2 3
//
// where 8 points north.
var lddOffsets = [10][2]int{
	{0, 0},
	{1, -1}, {1, 0}, {1, 1},
	{0, -1}, {0, 0}, {0, 1},
	{-1, -1}, {-1, 0}, {-1, 1},
}

// validDirection returns the integer drain direction held by v, or false
// if v is not a direction between 1 and 9.
func validDirection(v float64) (int, bool) {
	if IsNoData(v) {
		return 0, false
	}
	d := int(v)
	if float64(d) != v || d < 1 || d > 9 {
		return 0, false
	}
	return d, true
}

// downstream returns the index of the cell that cell i drains into, or -1
// if it is a pit or drains out of the grid or into an undefined cell.
func downstream(ldd *Grid, i int) int {
	d, ok := validDirection(ldd.Data.Elements[i])
	if !ok || d == Pit {
		return -1
	}
	geo := ldd.Geometry
	r, c := i/geo.Cols, i%geo.Cols
	rr, cc := r+lddOffsets[d][0], c+lddOffsets[d][1]
	if !geo.Inside(rr, cc) {
		return -1
	}
	j := geo.Index(rr, cc)
	if _, ok := validDirection(ldd.Data.Elements[j]); !ok {
		return -1
	}
	return j
}

// RepairLDD returns a sound drainage network derived from ldd. Cells with
// values other than 1 to 9 become undefined, cells that drain out of the
// grid or into an undefined cell become pits, and every cycle is broken by
// turning the cell that closes it into a pit.
func RepairLDD(ldd *Grid) *Grid {
	o := NewGrid(ldd.Geometry)
	for i, v := range ldd.Data.Elements {
		if d, ok := validDirection(v); ok {
			o.Data.Elements[i] = float64(d)
		}
	}
	for i := range o.Data.Elements {
		if _, ok := validDirection(o.Data.Elements[i]); ok && downstream(o, i) < 0 {
			o.Data.Elements[i] = Pit
		}
	}
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]uint8, len(o.Data.Elements))
	var path []int
	for start := range o.Data.Elements {
		if state[start] != unvisited || IsNoData(o.Data.Elements[start]) {
			continue
		}
		path = path[:0]
		i := start
		for i >= 0 && state[i] == unvisited {
			state[i] = onPath
			path = append(path, i)
			next := downstream(o, i)
			if next >= 0 && state[next] == onPath {
				o.Data.Elements[i] = Pit
				next = -1
			}
			i = next
		}
		for _, j := range path {
			state[j] = done
		}
	}
	return o
}

// FlowPath returns a mask that is true on every cell that is reached by
// following the drainage network in ldd downstream from a true cell in
// seeds. The seed cells themselves are included. Flow stops at pits, at
// undefined cells and at the edge of the grid.
func FlowPath(ldd *Grid, seeds *Mask) (*Mask, error) {
	if err := checkGeometry(ldd.Geometry, seeds.Geometry); err != nil {
		return nil, err
	}
	o := NewMask(ldd.Geometry)
	for i, ok := range seeds.Cells {
		if !ok {
			continue
		}
		for j := i; j >= 0 && !o.Cells[j]; j = downstream(ldd, j) {
			o.Cells[j] = true
		}
	}
	return o, nil
}
