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

// GroundwaterProperties holds the aquifer parameters used by a
// groundwater model.
type GroundwaterProperties struct {
	// SaturatedConductivity [m/day] and SpecificYield [-] come from an
	// aquifer properties data set (Gleeson et al., 2014).
	SaturatedConductivity, SpecificYield *Grid

	// Thickness [m] is usually the Margat-corrected ensemble average.
	Thickness *Grid
}

// NewGroundwaterProperties combines the inputs into one set of properties.
// The landmask is where thickness is defined, optionally narrowed by
// landmask. Conductivity and specific yield are kept only within it.
func NewGroundwaterProperties(thickness, kSat, specificYield *Grid, landmask *Mask) (*GroundwaterProperties, error) {
	if err := checkGeometry(thickness.Geometry, kSat.Geometry, specificYield.Geometry); err != nil {
		return nil, err
	}
	var err error
	if landmask != nil {
		if thickness, err = IfThen(landmask, thickness); err != nil {
			return nil, err
		}
	}
	mask := thickness.Defined()
	p := &GroundwaterProperties{Thickness: thickness}
	if p.SaturatedConductivity, err = IfThen(mask, kSat); err != nil {
		return nil, err
	}
	if p.SpecificYield, err = IfThen(mask, specificYield); err != nil {
		return nil, err
	}
	return p, nil
}

// OutputVariables returns the variables of a groundwater properties file.
func (p *GroundwaterProperties) OutputVariables() []OutputVariable {
	return []OutputVariable{
		{Name: "saturated_conductivity", Units: "m/day", LongName: "saturated hydraulic conductivity", Grid: p.SaturatedConductivity},
		{Name: "specific_yield", Units: "1", LongName: "specific yield", Grid: p.SpecificYield},
		{Name: "thickness", Units: "m", LongName: "aquifer thickness", Grid: p.Thickness},
	}
}
