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
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// MargatConfig holds the parameters of the Margat correction.
type MargatConfig struct {
	// MinApproxThickness [m] is the floor applied to the approximate
	// thickness so that its logarithm is finite.
	MinApproxThickness float64

	// Zone ids are valid only if 0 < id < MaxZoneID.
	MaxZoneID float64

	// ZoneExtendWindow [map units] is the window length of the majority
	// filter that closes small gaps between aquifer zones.
	ZoneExtendWindow float64

	// LowerPercentile and UpperPercentile (0-100) give the range of the
	// log approximate thickness within each zone that is mapped onto
	// the zone's reference thickness.
	LowerPercentile, UpperPercentile float64

	// Log values at or above MaxLogValue are left out of the
	// percentile calculation.
	MaxLogValue float64

	Fill FillConfig
}

// DefaultMargatConfig returns the default Margat correction parameters.
func DefaultMargatConfig() MargatConfig {
	return MargatConfig{
		MinApproxThickness: 0.0001,
		MaxZoneID:          10000,
		ZoneExtendWindow:   1.25,
		LowerPercentile:    2.5,
		UpperPercentile:    97.5,
		MaxLogValue:        1e6,
		Fill:               DefaultFillConfig(),
	}
}

// Validate checks the configuration.
func (c MargatConfig) Validate() error {
	if !(c.MinApproxThickness > 0) {
		return fmt.Errorf("aquifer: MinApproxThickness should be >0 but is %g", c.MinApproxThickness)
	}
	if !(c.MaxZoneID > 0) {
		return fmt.Errorf("aquifer: MaxZoneID should be >0 but is %g", c.MaxZoneID)
	}
	if !(c.ZoneExtendWindow > 0) {
		return fmt.Errorf("aquifer: ZoneExtendWindow should be >0 but is %g", c.ZoneExtendWindow)
	}
	if c.LowerPercentile < 0 || c.UpperPercentile > 100 || !(c.LowerPercentile < c.UpperPercentile) {
		return fmt.Errorf("aquifer: need 0 <= LowerPercentile < UpperPercentile <= 100 but have %g and %g",
			c.LowerPercentile, c.UpperPercentile)
	}
	return c.Fill.Validate()
}

// ZoneMap holds aquifer zones that have a positive reference thickness.
type ZoneMap struct {
	// IDs holds the zone id of each cell. Cells outside all zones are
	// undefined.
	IDs *Grid

	// Reference holds the reference thickness [m] of each cell's zone.
	Reference *Grid

	// Zones lists the zone ids in increasing order.
	Zones []float64
}

// ZoneStat describes the correction of one zone.
type ZoneStat struct {
	ID        float64
	Cells     int
	Reference float64 // [m]
	Lo, Hi    float64 // percentiles of the log approximate thickness

	// Err is non-nil if the zone could not be corrected.
	Err *DegenerateZoneError
}

// MargatResult is the output of a Margat correction.
type MargatResult struct {
	// Thickness [m] is the corrected thickness within the landmask.
	Thickness *Grid

	Zones []ZoneStat

	// Degenerate is the number of zones that were left to the
	// spatial fill.
	Degenerate int
}

// MargatCorrector rescales an approximate thickness field so that within
// each aquifer zone it agrees in log space with the zone's reference
// thickness from Margat and van der Gun (2013).
type MargatCorrector struct {
	MargatConfig

	// Log receives progress and diagnostic messages. If nil, the
	// standard logrus logger is used.
	Log logrus.FieldLogger
}

func (m *MargatCorrector) log() logrus.FieldLogger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

// ZoneMap builds the zone map from rasterized zone ids and a table of
// reference thickness per zone. Zones are first extended by a majority
// filter, then zones that are not in the table, have a non-positive
// reference thickness or an id outside (0, MaxZoneID) are removed.
func (m *MargatCorrector) ZoneMap(raw *Grid, table *LookupTable) (*ZoneMap, error) {
	if err := m.MargatConfig.Validate(); err != nil {
		return nil, err
	}
	major, err := WindowMajority(raw, m.ZoneExtendWindow)
	if err != nil {
		return nil, err
	}
	ids, err := Cover(raw, major)
	if err != nil {
		return nil, err
	}
	ref, missing := table.LookupGrid(ids)
	if missing > 0 {
		m.log().WithFields(logrus.Fields{"cells": missing, "table": table.Name}).
			Info("cells have a zone id that is not in the reference thickness table")
	}
	zm := &ZoneMap{IDs: NewGrid(raw.Geometry), Reference: NewGrid(raw.Geometry)}
	seen := make(map[float64]bool)
	for i, id := range ids.Data.Elements {
		r := ref.Data.Elements[i]
		if IsNoData(id) || IsNoData(r) || r <= 0 || id <= 0 || id >= m.MaxZoneID {
			continue
		}
		zm.IDs.Data.Elements[i] = id
		zm.Reference.Data.Elements[i] = r
		if !seen[id] {
			seen[id] = true
			zm.Zones = append(zm.Zones, id)
		}
	}
	sort.Float64s(zm.Zones)
	return zm, nil
}

// Correct applies the Margat correction to the approximate thickness
// field approx [m]. Within each zone the log thickness is rescaled between
// its lower percentile and the log reference thickness, and capped at the
// log reference thickness. The corrected zones are then blended with the
// uncorrected field using Fill and the result is restricted to landmask.
// If landmask is nil, the whole grid is used.
func (m *MargatCorrector) Correct(approx *Grid, zones *ZoneMap, landmask *Mask) (*MargatResult, error) {
	if err := m.MargatConfig.Validate(); err != nil {
		return nil, err
	}
	if landmask == nil {
		landmask = NewMaskValue(approx.Geometry, true)
	}
	if err := checkGeometry(approx.Geometry, zones.IDs.Geometry, landmask.Geometry); err != nil {
		return nil, err
	}
	approx = approx.MaxValue(m.MinApproxThickness)
	lnApprox := approx.Ln()

	cells := make(map[float64][]int, len(zones.Zones))
	for i, id := range zones.IDs.Data.Elements {
		if !IsNoData(id) {
			cells[id] = append(cells[id], i)
		}
	}

	result := &MargatResult{}
	lnRescaled := NewGrid(approx.Geometry)
	for _, id := range zones.Zones {
		stat := m.correctZone(id, cells[id], zones.Reference, lnApprox, lnRescaled)
		if stat.Err != nil {
			result.Degenerate++
			m.log().WithFields(logrus.Fields{
				"zone": id, "cells": stat.Cells, "lo": stat.Lo, "hi": stat.Hi,
			}).Warn(stat.Err.Reason)
		} else {
			m.log().WithFields(logrus.Fields{
				"zone": id, "cells": stat.Cells, "reference": stat.Reference,
			}).Debug("corrected aquifer zone")
		}
		result.Zones = append(result.Zones, stat)
	}

	filled, err := Fill(lnRescaled, lnApprox, m.Fill)
	if err != nil {
		return nil, err
	}
	result.Thickness, err = IfThen(landmask, filled.Exp())
	if err != nil {
		return nil, err
	}
	m.log().WithFields(logrus.Fields{
		"zones": len(result.Zones), "degenerate": result.Degenerate,
	}).Info("finished Margat correction")
	return result, nil
}

// correctZone writes the corrected log thickness of the cells of one zone
// into out. Cells are left undefined if the zone is degenerate.
func (m *MargatCorrector) correctZone(id float64, idx []int, reference, lnApprox, out *Grid) ZoneStat {
	stat := ZoneStat{ID: id, Cells: len(idx), Lo: math.NaN(), Hi: math.NaN()}
	degenerate := func(reason string) ZoneStat {
		stat.Err = &DegenerateZoneError{Zone: id, Lo: stat.Lo, Hi: stat.Hi, Reason: reason}
		return stat
	}
	if len(idx) == 0 {
		return degenerate("zone has no cells")
	}
	stat.Reference = reference.Data.Elements[idx[0]]
	if !(stat.Reference > 0) {
		return degenerate("zone has no positive reference thickness")
	}
	expMargat := math.Log(stat.Reference)

	var values []float64
	for _, i := range idx {
		if v := lnApprox.Data.Elements[i]; !IsNoData(v) && v < m.MaxLogValue {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return degenerate("zone has no approximate thickness values")
	}
	values = sortedCopy(values)
	lo := percentile(m.LowerPercentile/100, values)
	hi := percentile(m.UpperPercentile/100, values)
	stat.Lo, stat.Hi = lo, hi
	if !(hi > lo) {
		return degenerate("percentile range of the approximate thickness has collapsed")
	}

	for _, i := range idx {
		x := lnApprox.Data.Elements[i]
		if IsNoData(x) {
			continue
		}
		t := math.Max(0, (x-lo)/(hi-lo))
		t *= math.Max(0, expMargat-lo)
		t += math.Min(lo, x)
		out.Data.Elements[i] = math.Min(expMargat, t)
	}
	return stat
}

// IsDegenerate reports whether err is a *DegenerateZoneError.
func IsDegenerate(err error) bool {
	var d *DegenerateZoneError
	return errors.As(err, &d)
}
