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
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrGeometryMismatch is returned when grids that are combined in one
// operation do not share the same extent and resolution.
var ErrGeometryMismatch = errors.New("aquifer: grid geometries do not match")

// DegenerateZoneError reports an aquifer zone that cannot be corrected
// directly. The zone is left undefined and the spatial fill supplies its
// values.
type DegenerateZoneError struct {
	Zone   float64
	Lo, Hi float64
	Reason string
}

func (e *DegenerateZoneError) Error() string {
	return fmt.Sprintf("aquifer: zone %g is degenerate (%s; lo=%g, hi=%g)", e.Zone, e.Reason, e.Lo, e.Hi)
}

// InsufficientSampleError is returned when ensemble statistics are
// requested from fewer than two samples.
type InsufficientSampleError struct {
	N int
}

func (e *InsufficientSampleError) Error() string {
	return fmt.Sprintf("aquifer: at least 2 samples are needed to calculate ensemble statistics but there are %d", e.N)
}

// MissingLookupKeyError reports a key that does not match any row of a
// lookup table.
type MissingLookupKeyError struct {
	Table string
	Key   float64
}

func (e *MissingLookupKeyError) Error() string {
	return fmt.Sprintf("aquifer: key %g is not in lookup table %s", e.Key, e.Table)
}

// ClampCounter counts values that were saturated by a clamp. It is safe
// for concurrent use.
type ClampCounter struct {
	ZScore            atomic.Int64
	ZScoreField       atomic.Int64
	RelativeElevation atomic.Int64
	MissingLookup     atomic.Int64
}

// clamp limits v to [lo, hi], incrementing c when v is outside.
func clamp(v, lo, hi float64, c *atomic.Int64) float64 {
	switch {
	case v < lo:
		c.Add(1)
		return lo
	case v > hi:
		c.Add(1)
		return hi
	}
	return v
}

// Log writes the clamp counts as a warning if any clamp saturated.
func (c *ClampCounter) Log(log logrus.FieldLogger) {
	f := logrus.Fields{
		"z":                  c.ZScore.Load(),
		"zscore_field":       c.ZScoreField.Load(),
		"relative_elevation": c.RelativeElevation.Load(),
		"missing_lookup":     c.MissingLookup.Load(),
	}
	for _, v := range f {
		if v.(int64) > 0 {
			log.WithFields(f).Warn("values were clamped to the lookup table domain")
			return
		}
	}
}
