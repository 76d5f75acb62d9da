package geojsonvt

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a projected coordinate, Z holds the simplification importance
type Point struct {
	X, Y float64
	Z    float64
}

// LineString is a projected line with its length and, when line metrics are
// tracked, the distance along the original line of its first and last points
type LineString struct {
	Points   []Point
	Dist     float64
	SegStart float64
	SegEnd   float64
}

// LinearRing is a projected polygon ring with its area
type LinearRing struct {
	Points []Point
	Area   float64
}

type (
	// Empty geometry, never stored in a Feature
	Empty struct{}

	MultiPoint         []Point
	MultiLineString    []LineString
	Polygon            []LinearRing
	MultiPolygon       []Polygon
	GeometryCollection []Geometry
)

// Geometry is one of Empty, Point, MultiPoint, LineString, MultiLineString,
// Polygon, MultiPolygon or GeometryCollection
type Geometry interface {
	isGeometry()
}

func (Empty) isGeometry()              {}
func (Point) isGeometry()              {}
func (MultiPoint) isGeometry()         {}
func (LineString) isGeometry()         {}
func (MultiLineString) isGeometry()    {}
func (Polygon) isGeometry()            {}
func (MultiPolygon) isGeometry()       {}
func (GeometryCollection) isGeometry() {}

// BBox bounding box in projected coordinates
type BBox struct {
	Min, Max r2.Point
}

func emptyBBox() BBox {
	return BBox{
		Min: r2.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

func (b *BBox) extend(x, y float64) {
	b.Min.X = math.Min(x, b.Min.X)
	b.Min.Y = math.Min(y, b.Min.Y)
	b.Max.X = math.Max(x, b.Max.X)
	b.Max.Y = math.Max(y, b.Max.Y)
}

// Feature a projected feature
type Feature struct {
	Geometry   Geometry
	Properties map[string]interface{}
	ID         string
	BBox       BBox

	// NumPoints is the count of vertices in Geometry
	NumPoints uint32
}

// Features is an ordered list of projected features
type Features []*Feature

// NewFeature computes the bbox and points count of g,
// returns nil if g holds no point
func NewFeature(g Geometry, props map[string]interface{}, id string) *Feature {
	f := &Feature{
		Geometry:   g,
		Properties: props,
		ID:         id,
		BBox:       emptyBBox(),
	}

	eachPoint(g, func(p Point) {
		f.BBox.extend(p.X, p.Y)
		f.NumPoints++
	})

	if f.NumPoints == 0 {
		return nil
	}

	return f
}

// eachPoint calls fn for every point of g in order
func eachPoint(g Geometry, fn func(Point)) {
	switch g := g.(type) {
	case Point:
		fn(g)
	case MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case LineString:
		for _, p := range g.Points {
			fn(p)
		}
	case MultiLineString:
		for _, l := range g {
			eachPoint(l, fn)
		}
	case Polygon:
		for _, r := range g {
			for _, p := range r.Points {
				fn(p)
			}
		}
	case MultiPolygon:
		for _, poly := range g {
			eachPoint(poly, fn)
		}
	case GeometryCollection:
		for _, sub := range g {
			eachPoint(sub, fn)
		}
	}
}

// mapPoints returns a copy of g with fn applied to every point,
// g itself is left untouched
func mapPoints(g Geometry, fn func(Point) Point) Geometry {
	switch g := g.(type) {
	case Point:
		return fn(g)
	case MultiPoint:
		return MultiPoint(mapSlice(g, fn))
	case LineString:
		l := g
		l.Points = mapSlice(g.Points, fn)
		return l
	case MultiLineString:
		res := make(MultiLineString, len(g))
		for i, l := range g {
			res[i] = mapPoints(l, fn).(LineString)
		}
		return res
	case Polygon:
		res := make(Polygon, len(g))
		for i, r := range g {
			res[i] = LinearRing{Points: mapSlice(r.Points, fn), Area: r.Area}
		}
		return res
	case MultiPolygon:
		res := make(MultiPolygon, len(g))
		for i, poly := range g {
			res[i] = mapPoints(poly, fn).(Polygon)
		}
		return res
	case GeometryCollection:
		res := make(GeometryCollection, len(g))
		for i, sub := range g {
			res[i] = mapPoints(sub, fn)
		}
		return res
	}
	return g
}

func mapSlice(points []Point, fn func(Point) Point) []Point {
	res := make([]Point, len(points))
	for i, p := range points {
		res[i] = fn(p)
	}
	return res
}
