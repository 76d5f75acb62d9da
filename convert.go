package geojsonvt

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// projector projects lng lat coordinates into the unit square and
// computes simplification data for lines and rings
type projector struct {
	tolerance float64
}

func (pr projector) point(c geom.Coord) Point {
	sine := math.Sin(c[1] * math.Pi / 180)
	x := c[0]/360 + 0.5
	y := 0.5 - 0.25*math.Log((1+sine)/(1-sine))/math.Pi
	y = math.Max(math.Min(y, 1), 0)

	return Point{X: x, Y: y}
}

func (pr projector) points(coords []geom.Coord) []Point {
	res := make([]Point, len(coords))
	for i, c := range coords {
		res[i] = pr.point(c)
	}
	return res
}

func (pr projector) lineString(coords []geom.Coord) LineString {
	var l LineString
	if len(coords) == 0 {
		return l
	}

	l.Points = pr.points(coords)

	for i := 0; i < len(l.Points)-1; i++ {
		a := l.Points[i]
		b := l.Points[i+1]
		l.Dist += math.Hypot(b.X-a.X, b.Y-a.Y)
	}

	simplifyLine(l.Points, pr.tolerance)

	l.SegStart = 0
	l.SegEnd = l.Dist

	return l
}

func (pr projector) linearRing(coords []geom.Coord) LinearRing {
	var r LinearRing
	if len(coords) == 0 {
		return r
	}

	r.Points = pr.points(coords)

	var area float64
	for i := 0; i < len(r.Points)-1; i++ {
		a := r.Points[i]
		b := r.Points[i+1]
		area += a.X*b.Y - b.X*a.Y
	}
	r.Area = math.Abs(area / 2)

	simplifyLine(r.Points, pr.tolerance)

	return r
}

func (pr projector) polygon(rings [][]geom.Coord) Polygon {
	res := make(Polygon, len(rings))
	for i, ring := range rings {
		res[i] = pr.linearRing(ring)
	}
	return res
}

func (pr projector) geometry(g geom.T) (Geometry, error) {
	switch g := g.(type) {
	case nil:
		return Empty{}, nil
	case *geom.Point:
		if len(g.FlatCoords()) < 2 {
			return Empty{}, nil
		}
		return pr.point(g.Coords()), nil
	case *geom.MultiPoint:
		return MultiPoint(pr.points(g.Coords())), nil
	case *geom.LineString:
		return pr.lineString(g.Coords()), nil
	case *geom.MultiLineString:
		lines := g.Coords()
		res := make(MultiLineString, len(lines))
		for i, l := range lines {
			res[i] = pr.lineString(l)
		}
		return res, nil
	case *geom.Polygon:
		return pr.polygon(g.Coords()), nil
	case *geom.MultiPolygon:
		polys := g.Coords()
		res := make(MultiPolygon, len(polys))
		for i, p := range polys {
			res[i] = pr.polygon(p)
		}
		return res, nil
	case *geom.GeometryCollection:
		geoms := g.Geoms()
		res := make(GeometryCollection, 0, len(geoms))
		for _, sub := range geoms {
			pg, err := pr.geometry(sub)
			if err != nil {
				return nil, err
			}
			res = append(res, pg)
		}
		return res, nil
	default:
		return nil, errors.Errorf("unsupported geometry type %T", g)
	}
}

// convert projects every feature of fc, features without points are dropped
func convert(fc *geojson.FeatureCollection, tolerance float64, generateID bool) (Features, error) {
	if fc == nil {
		return nil, nil
	}

	pr := projector{tolerance: tolerance}
	projected := make(Features, 0, len(fc.Features))

	var genID uint64
	for i, f := range fc.Features {
		if f == nil {
			continue
		}

		id := f.ID
		if generateID {
			id = strconv.FormatUint(genID, 10)
			genID++
		}

		g, err := pr.geometry(f.Geometry)
		if err != nil {
			return nil, errors.Wrapf(err, "can't project feature #%d", i)
		}

		if pf := NewFeature(g, f.Properties, id); pf != nil {
			projected = append(projected, pf)
		}
	}

	return projected, nil
}
