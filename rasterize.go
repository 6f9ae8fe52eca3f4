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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// A Rasterizer creates a grid of zone ids.
type Rasterizer interface {
	Rasterize(g GridGeometry) (*Grid, error)
}

// ZoneSource returns a Rasterizer for the aquifer zones in path, which
// can be a polygon shapefile (.shp) or a NetCDF file (.nc or .ncf).
// attribute is the shapefile attribute or NetCDF variable holding the
// zone ids.
func ZoneSource(path, attribute string, gridSR *proj.SR) (Rasterizer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return &ShapefileZones{Path: path, Attribute: attribute, GridSR: gridSR}, nil
	case ".nc", ".ncf":
		return &NetCDFZones{Path: path, Variable: attribute}, nil
	default:
		return nil, fmt.Errorf("aquifer: aquifer zone file %s needs to have extension .shp, .nc or .ncf", path)
	}
}

// ShapefileZones rasterizes a polygon shapefile. Each cell gets the
// attribute value of the polygon its center is in. Where polygons overlap,
// the one that comes last in the file wins.
type ShapefileZones struct {
	Path, Attribute string

	// GridSR is the spatial reference of the grid. If it is not nil and
	// the shapefile has a .prj file, the polygons are reprojected to it.
	GridSR *proj.SR
}

type zonePolygon struct {
	geom.Polygonal
	record int
	id     float64
}

// Rasterize implements Rasterizer.
func (s *ShapefileZones) Rasterize(g GridGeometry) (*Grid, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dec, err := shp.NewDecoder(s.Path)
	if err != nil {
		return nil, fmt.Errorf("aquifer: opening aquifer shapefile: %w", err)
	}
	defer dec.Close()

	switch dec.GeometryType {
	case goshp.POLYGON, goshp.POLYGONZ, goshp.POLYGONM:
	default:
		return nil, fmt.Errorf("aquifer: aquifer shapefile %s needs to contain polygons but has shape type %d", s.Path, dec.GeometryType)
	}

	var trans proj.Transformer
	if s.GridSR != nil {
		if shpSR, err := dec.SR(); err == nil {
			if trans, err = shpSR.NewTransform(s.GridSR); err != nil {
				return nil, fmt.Errorf("aquifer: reprojecting aquifer shapefile: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("aquifer: reading aquifer shapefile projection: %w", err)
		}
	}

	bounds := g.Bounds()
	tree := rtree.NewTree(25, 50)
	for record := 0; ; record++ {
		gg, fields, more := dec.DecodeRowFields(s.Attribute)
		if !more {
			break
		}
		if err := dec.Error(); err != nil {
			return nil, fmt.Errorf("aquifer: reading aquifer shapefile record %d: %w", record, err)
		}
		id, err := strconv.ParseFloat(strings.Trim(fields[s.Attribute], "\x00* "), 64)
		if err != nil {
			// Records without a numeric id do not belong to a zone.
			continue
		}
		if trans != nil {
			if gg, err = gg.Transform(trans); err != nil {
				return nil, err
			}
		}
		poly, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("aquifer: aquifer shapefile record %d is not a polygon", record)
		}
		if poly.Bounds().Overlaps(bounds) {
			tree.Insert(&zonePolygon{Polygonal: poly, record: record, id: id})
		}
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("aquifer: reading aquifer shapefile: %w", err)
	}

	o := NewGrid(g)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			p := g.CellCenter(r, c)
			var best *zonePolygon
			for _, x := range tree.SearchIntersect(p.Bounds()) {
				z := x.(*zonePolygon)
				if p.Within(z.Polygonal) == geom.Outside {
					continue
				}
				if best == nil || z.record > best.record {
					best = z
				}
			}
			if best != nil {
				o.Set(r, c, best.id)
			}
		}
	}
	return o, nil
}

// NetCDFZones reads zone ids that were already rasterized to the grid.
type NetCDFZones struct {
	Path, Variable string
}

// Rasterize implements Rasterizer.
func (n *NetCDFZones) Rasterize(g GridGeometry) (*Grid, error) {
	return ReadNetCDF(n.Path, n.Variable, g)
}
