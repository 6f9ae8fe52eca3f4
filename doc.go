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

// Package aquifer estimates the thickness of aquifers in sedimentary
// basins.
//
// A Monte Carlo ensemble of thickness fields is drawn from topography
// following de Graaf et al. (2014): cells whose elevation above the
// floodplain is below a threshold make up the sedimentary basins, their
// relative elevation is mapped to a z-score field, and each draw combines
// that field with a global z-score and a log-normal thickness model.
// The ensemble mean can then be corrected so that, within each aquifer
// zone of Margat and van der Gun (2013), it agrees with the zone's
// reference thickness.
//
// Grids are stored north-up in row-major order and read from and
// written to NetCDF files.
package aquifer

// Version is the version of the model.
const Version = "1.0.0"
