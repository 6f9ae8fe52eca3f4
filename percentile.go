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
	"sort"
)

// percentile returns the p quantile (0 <= p <= 1) of x, interpolating
// linearly between the order statistics closest to rank p*(len(x)-1).
// x must be sorted in increasing order. gonum's stat.Quantile offers the
// empirical and the p*n interpolated definitions, neither of which
// matches this one.
func percentile(p float64, x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return x[0]
	}
	if p >= 1 {
		return x[len(x)-1]
	}
	rank := p * float64(len(x)-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= len(x) {
		return x[lo]
	}
	f := rank - float64(lo)
	return x[lo] + f*(x[hi]-x[lo])
}

// sortedCopy returns an increasing copy of x.
func sortedCopy(x []float64) []float64 {
	o := make([]float64, len(x))
	copy(o, x)
	sort.Float64s(o)
	return o
}
