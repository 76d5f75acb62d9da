package geojsonvt

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const (
	// ClipStartProperty fraction of the original line where a clipped line starts
	ClipStartProperty = "mapbox_clip_start"
	// ClipEndProperty fraction of the original line where a clipped line ends
	ClipEndProperty = "mapbox_clip_end"
)

// Tile features in tile coordinates
type Tile struct {
	Features []*geojson.Feature

	// NumPoints vertices count of the source features
	NumPoints uint32
	// NumSimplified vertices count actually emitted
	NumSimplified uint32
}

// EmptyTile is returned for tiles holding no geometry
var EmptyTile = &Tile{}

// IsEmpty returns true if t has no feature
func (t *Tile) IsEmpty() bool {
	return t == nil || len(t.Features) == 0
}

// FeatureCollection returns the tile features as a GeoJSON collection
func (t *Tile) FeatureCollection() *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	if t != nil {
		fc.Features = t.Features
	}
	return fc
}

// GeoJSON encodes the tile as a GeoJSON FeatureCollection
func (t *Tile) GeoJSON() ([]byte, error) {
	return t.FeatureCollection().MarshalJSON()
}

// internalTile the state of one materialized tile of the index
type internalTile struct {
	extent      float64
	z           uint8
	x, y        uint32
	z2          float64
	tolerance   float64
	sqTolerance float64
	lineMetrics bool

	// sourceFeatures are only kept by tiles that were not split further
	sourceFeatures Features
	bbox           BBox
	tile           Tile
}

func newInternalTile(source Features, z uint8, x, y uint32, extent uint16, tolerance float64, lineMetrics bool) *internalTile {
	it := &internalTile{
		extent:      float64(extent),
		z:           z,
		x:           x,
		y:           y,
		z2:          math.Exp2(float64(z)),
		tolerance:   tolerance,
		sqTolerance: tolerance * tolerance,
		lineMetrics: lineMetrics,
		bbox: BBox{
			Min: r2.Point{X: 2, Y: 1},
			Max: r2.Point{X: -1, Y: 0},
		},
	}

	for _, f := range source {
		it.addFeature(f)
	}

	return it
}

func (it *internalTile) addFeature(f *Feature) {
	it.tile.NumPoints += f.NumPoints

	if g := it.transform(f.Geometry); g != nil {
		props := f.Properties
		if line, ok := f.Geometry.(LineString); ok && it.lineMetrics {
			props = make(map[string]interface{}, len(f.Properties)+2)
			for k, v := range f.Properties {
				props[k] = v
			}
			props[ClipStartProperty] = line.SegStart / line.Dist
			props[ClipEndProperty] = line.SegEnd / line.Dist
		}

		it.tile.Features = append(it.tile.Features, &geojson.Feature{
			ID:         f.ID,
			Geometry:   g,
			Properties: props,
		})
	}

	it.bbox.Min.X = math.Min(f.BBox.Min.X, it.bbox.Min.X)
	it.bbox.Min.Y = math.Min(f.BBox.Min.Y, it.bbox.Min.Y)
	it.bbox.Max.X = math.Max(f.BBox.Max.X, it.bbox.Max.X)
	it.bbox.Max.Y = math.Max(f.BBox.Max.Y, it.bbox.Max.Y)
}

// transform returns g in tile coordinates, nil when nothing is left
func (it *internalTile) transform(g Geometry) geom.T {
	switch g := g.(type) {
	case Point:
		return geom.NewPoint(geom.XY).MustSetCoords(it.transformPoint(g))
	case MultiPoint:
		coords := make([]geom.Coord, 0, len(g))
		for _, p := range g {
			coords = append(coords, it.transformPoint(p))
		}
		switch len(coords) {
		case 0:
			return nil
		case 1:
			return geom.NewPoint(geom.XY).MustSetCoords(coords[0])
		}
		return geom.NewMultiPoint(geom.XY).MustSetCoords(coords)
	case LineString:
		coords := it.transformLine(g)
		if len(coords) == 0 {
			return nil
		}
		return geom.NewLineString(geom.XY).MustSetCoords(coords)
	case MultiLineString:
		lines := make([][]geom.Coord, 0, len(g))
		for _, l := range g {
			if coords := it.transformLine(l); len(coords) > 0 {
				lines = append(lines, coords)
			}
		}
		switch len(lines) {
		case 0:
			return nil
		case 1:
			return geom.NewLineString(geom.XY).MustSetCoords(lines[0])
		}
		return geom.NewMultiLineString(geom.XY).MustSetCoords(lines)
	case Polygon:
		rings := it.transformPolygon(g)
		if len(rings) == 0 {
			return nil
		}
		return geom.NewPolygon(geom.XY).MustSetCoords(rings)
	case MultiPolygon:
		polys := make([][][]geom.Coord, 0, len(g))
		for _, p := range g {
			if rings := it.transformPolygon(p); len(rings) > 0 {
				polys = append(polys, rings)
			}
		}
		switch len(polys) {
		case 0:
			return nil
		case 1:
			return geom.NewPolygon(geom.XY).MustSetCoords(polys[0])
		}
		return geom.NewMultiPolygon(geom.XY).MustSetCoords(polys)
	case GeometryCollection:
		geoms := make([]geom.T, 0, len(g))
		for _, sub := range g {
			if tg := it.transform(sub); tg != nil {
				geoms = append(geoms, tg)
			}
		}
		switch len(geoms) {
		case 0:
			return nil
		case 1:
			return geoms[0]
		}
		// a new collection has no layout to mismatch
		return geom.NewGeometryCollection().MustPush(geoms...)
	}

	return nil
}

func (it *internalTile) transformPoint(p Point) geom.Coord {
	it.tile.NumSimplified++
	return geom.Coord{
		math.Round((p.X*it.z2 - float64(it.x)) * it.extent),
		math.Round((p.Y*it.z2 - float64(it.y)) * it.extent),
	}
}

func (it *internalTile) transformLine(line LineString) []geom.Coord {
	var coords []geom.Coord
	if line.Dist > it.tolerance {
		for _, p := range line.Points {
			if p.Z > it.sqTolerance {
				coords = append(coords, it.transformPoint(p))
			}
		}
	}
	return coords
}

func (it *internalTile) transformRing(ring LinearRing) []geom.Coord {
	var coords []geom.Coord
	if ring.Area > it.sqTolerance {
		for _, p := range ring.Points {
			if p.Z > it.sqTolerance {
				coords = append(coords, it.transformPoint(p))
			}
		}
	}
	return coords
}

func (it *internalTile) transformPolygon(poly Polygon) [][]geom.Coord {
	rings := make([][]geom.Coord, 0, len(poly))
	for _, r := range poly {
		if coords := it.transformRing(r); len(coords) > 0 {
			rings = append(rings, coords)
		}
	}
	return rings
}
