package geojsonvt

import (
	"math"

	"github.com/golang/geo/r2"
)

type axis int

const (
	axisX axis = iota
	axisY
)

func (a axis) bound(p r2.Point) float64 {
	if a == axisX {
		return p.X
	}
	return p.Y
}

func getX(p Point) float64 { return p.X }
func getY(p Point) float64 { return p.Y }

// intersectX returns the point at t along a b, with X pinned to x
func intersectX(a, b Point, x, t float64) Point {
	return Point{X: x, Y: (b.Y-a.Y)*t + a.Y, Z: 1}
}

// intersectY returns the point at t along a b, with Y pinned to y
func intersectY(a, b Point, y, t float64) Point {
	return Point{X: (b.X-a.X)*t + a.X, Y: y, Z: 1}
}

// clipper slices geometries between k1 and k2 along one axis
type clipper struct {
	k1, k2      float64
	lineMetrics bool

	get       func(Point) float64
	intersect func(a, b Point, v, t float64) Point
}

func newClipper(ax axis, k1, k2 float64, lineMetrics bool) *clipper {
	c := &clipper{
		k1:          k1,
		k2:          k2,
		lineMetrics: lineMetrics,
		get:         getX,
		intersect:   intersectX,
	}
	if ax == axisY {
		c.get = getY
		c.intersect = intersectY
	}
	return c
}

// calcProgress interpolation parameter of v between a and b along the clipper axis
func (c *clipper) calcProgress(a, b Point, v float64) float64 {
	return (v - c.get(a)) / (c.get(b) - c.get(a))
}

func (c *clipper) clipGeometry(g Geometry) Geometry {
	switch g := g.(type) {
	case Point:
		return g
	case MultiPoint:
		return c.clipMultiPoint(g)
	case LineString:
		var parts MultiLineString
		c.clipLine(g, &parts)
		if len(parts) == 1 {
			return parts[0]
		}
		return parts
	case MultiLineString:
		var parts MultiLineString
		for _, l := range g {
			c.clipLine(l, &parts)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return parts
	case Polygon:
		return c.clipPolygon(g)
	case MultiPolygon:
		var res MultiPolygon
		for _, poly := range g {
			if p := c.clipPolygon(poly); len(p) > 0 {
				res = append(res, p)
			}
		}
		return res
	case GeometryCollection:
		res := make(GeometryCollection, 0, len(g))
		for _, sub := range g {
			res = append(res, c.clipGeometry(sub))
		}
		return res
	}
	return Empty{}
}

// clipMultiPoint keeps points in the closed interval [k1, k2]
func (c *clipper) clipMultiPoint(points MultiPoint) MultiPoint {
	var res MultiPoint
	for _, p := range points {
		if k := c.get(p); k >= c.k1 && k <= c.k2 {
			res = append(res, p)
		}
	}
	return res
}

func (c *clipper) clipPolygon(poly Polygon) Polygon {
	var res Polygon
	for _, ring := range poly {
		if r := c.clipRing(ring); len(r.Points) > 0 {
			res = append(res, r)
		}
	}
	return res
}

func (c *clipper) newSlice(line LineString) LineString {
	slice := LineString{Dist: line.Dist}
	if c.lineMetrics {
		slice.SegStart = line.SegStart
		slice.SegEnd = line.SegEnd
	}
	return slice
}

// clipLine appends to slices every part of line inside the slab
func (c *clipper) clipLine(line LineString, slices *MultiLineString) {
	l := len(line.Points)
	if l < 2 {
		return
	}

	k1, k2 := c.k1, c.k2
	lineLen := line.SegStart
	var segLen, t float64

	slice := c.newSlice(line)

	for i := 0; i < l-1; i++ {
		a := line.Points[i]
		b := line.Points[i+1]
		ak := c.get(a)
		bk := c.get(b)
		isLastSeg := i == l-2

		if c.lineMetrics {
			segLen = math.Hypot(b.X-a.X, b.Y-a.Y)
		}

		switch {
		case ak < k1:
			switch {
			case bk > k2: // ---|-----|-->
				t = c.calcProgress(a, b, k1)
				slice.Points = append(slice.Points, c.intersect(a, b, k1, t))
				if c.lineMetrics {
					slice.SegStart = lineLen + segLen*t
				}

				t = c.calcProgress(a, b, k2)
				slice.Points = append(slice.Points, c.intersect(a, b, k2, t))
				if c.lineMetrics {
					slice.SegEnd = lineLen + segLen*t
				}

				*slices = append(*slices, slice)
				slice = c.newSlice(line)
			case bk > k1: // ---|-->  |
				t = c.calcProgress(a, b, k1)
				slice.Points = append(slice.Points, c.intersect(a, b, k1, t))
				if c.lineMetrics {
					slice.SegStart = lineLen + segLen*t
				}
				if isLastSeg {
					slice.Points = append(slice.Points, b)
				}
			case bk == k1 && !isLastSeg: // --->|..  |
				if c.lineMetrics {
					slice.SegStart = lineLen + segLen
				}
				slice.Points = append(slice.Points, b)
			}
		case ak > k2:
			switch {
			case bk < k1: // <--|-----|---
				t = c.calcProgress(a, b, k2)
				slice.Points = append(slice.Points, c.intersect(a, b, k2, t))
				if c.lineMetrics {
					slice.SegStart = lineLen + segLen*t
				}

				t = c.calcProgress(a, b, k1)
				slice.Points = append(slice.Points, c.intersect(a, b, k1, t))
				if c.lineMetrics {
					slice.SegEnd = lineLen + segLen*t
				}

				*slices = append(*slices, slice)
				slice = c.newSlice(line)
			case bk < k2: // |  <--|---
				t = c.calcProgress(a, b, k2)
				slice.Points = append(slice.Points, c.intersect(a, b, k2, t))
				if c.lineMetrics {
					slice.SegStart = lineLen + segLen*t
				}
				if isLastSeg {
					slice.Points = append(slice.Points, b)
				}
			case bk == k2 && !isLastSeg: // |  ..|<---
				if c.lineMetrics {
					slice.SegStart = lineLen + segLen
				}
				slice.Points = append(slice.Points, b)
			}
		default:
			slice.Points = append(slice.Points, a)

			switch {
			case bk < k1: // <--|---  |
				t = c.calcProgress(a, b, k1)
				slice.Points = append(slice.Points, c.intersect(a, b, k1, t))
				if c.lineMetrics {
					slice.SegEnd = lineLen + segLen*t
				}
				*slices = append(*slices, slice)
				slice = c.newSlice(line)
			case bk > k2: // |  ---|-->
				t = c.calcProgress(a, b, k2)
				slice.Points = append(slice.Points, c.intersect(a, b, k2, t))
				if c.lineMetrics {
					slice.SegEnd = lineLen + segLen*t
				}
				*slices = append(*slices, slice)
				slice = c.newSlice(line)
			case isLastSeg: // | --> |
				slice.Points = append(slice.Points, b)
			}
		}

		if c.lineMetrics {
			lineLen += segLen
		}
	}

	if len(slice.Points) > 0 {
		if c.lineMetrics {
			slice.SegEnd = lineLen
		}
		*slices = append(*slices, slice)
	}
}

// clipRing returns the part of ring inside the slab, always closed or empty
func (c *clipper) clipRing(ring LinearRing) LinearRing {
	l := len(ring.Points)
	slice := LinearRing{Area: ring.Area}
	if l < 2 {
		return slice
	}

	k1, k2 := c.k1, c.k2

	for i := 0; i < l-1; i++ {
		a := ring.Points[i]
		b := ring.Points[i+1]
		ak := c.get(a)
		bk := c.get(b)

		switch {
		case ak < k1:
			if bk > k1 { // ---|-->  |
				slice.Points = append(slice.Points, c.intersect(a, b, k1, c.calcProgress(a, b, k1)))
				if bk > k2 { // ---|-----|-->
					slice.Points = append(slice.Points, c.intersect(a, b, k2, c.calcProgress(a, b, k2)))
				} else if i == l-2 {
					slice.Points = append(slice.Points, b)
				}
			}
		case ak > k2:
			if bk < k2 { // |  <--|---
				slice.Points = append(slice.Points, c.intersect(a, b, k2, c.calcProgress(a, b, k2)))
				if bk < k1 { // <--|-----|---
					slice.Points = append(slice.Points, c.intersect(a, b, k1, c.calcProgress(a, b, k1)))
				} else if i == l-2 {
					slice.Points = append(slice.Points, b)
				}
			}
		default: // | --> |
			slice.Points = append(slice.Points, a)
			if bk < k1 { // <--|---  |
				slice.Points = append(slice.Points, c.intersect(a, b, k1, c.calcProgress(a, b, k1)))
			} else if bk > k2 { // |  ---|-->
				slice.Points = append(slice.Points, c.intersect(a, b, k2, c.calcProgress(a, b, k2)))
			}
		}
	}

	// close the ring if its endpoints are not the same after clipping
	if n := len(slice.Points); n > 0 && slice.Points[0] != slice.Points[n-1] {
		slice.Points = append(slice.Points, slice.Points[0])
	}

	return slice
}

/* clip features between two axis-parallel lines:
 *     |        |
 *  ___|___     |     /
 * /   |   \____|____/
 *     |        |
 */
func clip(features Features, k1, k2, minAll, maxAll float64, ax axis, lineMetrics bool) Features {
	// trivial accept
	if minAll >= k1 && maxAll < k2 {
		return features
	}

	// trivial reject
	if maxAll < k1 || minAll >= k2 {
		return Features{}
	}

	clipped := make(Features, 0, len(features))
	c := newClipper(ax, k1, k2, lineMetrics)

	for _, f := range features {
		min := ax.bound(f.BBox.Min)
		max := ax.bound(f.BBox.Max)

		if min >= k1 && max < k2 {
			clipped = append(clipped, f)
			continue
		} else if max < k1 || min >= k2 {
			continue
		}

		cg := c.clipGeometry(f.Geometry)

		if mls, ok := cg.(MultiLineString); ok && lineMetrics {
			// every part is a feature on its own to keep its own clip start and end
			for _, l := range mls {
				if nf := NewFeature(l, f.Properties, f.ID); nf != nil {
					clipped = append(clipped, nf)
				}
			}
			continue
		}

		if nf := NewFeature(cg, f.Properties, f.ID); nf != nil {
			clipped = append(clipped, nf)
		}
	}

	return clipped
}
