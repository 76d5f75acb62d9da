package geojsonvt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// retained marks every point as kept by the simplification
func retained(points []Point) []Point {
	for i := range points {
		points[i].Z = 1
	}
	return points
}

func TestInternalTile_Transform(t *testing.T) {
	square := LinearRing{
		Points: retained(pts(0.55, 0.05, 0.6, 0.05, 0.6, 0.1, 0.55, 0.1, 0.55, 0.05)),
		Area:   0.0025,
	}
	tiny := LinearRing{
		Points: retained(pts(0.7, 0.2, 0.7000001, 0.2, 0.7000001, 0.2000001, 0.7, 0.2)),
		Area:   1e-14,
	}

	tests := []struct {
		name     string
		g        Geometry
		want     geom.T
		wantNone bool
	}{
		{
			"point",
			Point{X: 0.75, Y: 0.25},
			geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{2048, 2048}),
			false,
		},
		{
			"single multipoint demoted",
			MultiPoint{{X: 0.75, Y: 0.25}},
			geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{2048, 2048}),
			false,
		},
		{
			"multipoint",
			MultiPoint{{X: 0.5, Y: 0}, {X: 1, Y: 0.5}},
			geom.NewMultiPoint(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {4096, 4096}}),
			false,
		},
		{
			"line",
			newLine(retained(pts(0.5, 0, 0.75, 0.25))),
			geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {2048, 2048}}),
			false,
		},
		{
			"line with dropped vertex",
			newLine([]Point{{X: 0.5, Y: 0, Z: 1}, {X: 0.6, Y: 0.1}, {X: 0.75, Y: 0.25, Z: 1}}),
			geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {2048, 2048}}),
			false,
		},
		{
			"short line dropped",
			newLine(retained(pts(0.5, 0, 0.5000001, 0))),
			nil,
			true,
		},
		{
			"single multilinestring demoted",
			MultiLineString{
				newLine(retained(pts(0.5, 0, 0.75, 0.25))),
				newLine(retained(pts(0.5, 0, 0.5000001, 0))),
			},
			geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {2048, 2048}}),
			false,
		},
		{
			"polygon",
			Polygon{square, tiny},
			geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
				{{410, 410}, {819, 410}, {819, 819}, {410, 819}, {410, 410}},
			}),
			false,
		},
		{
			"small polygon dropped",
			Polygon{tiny},
			nil,
			true,
		},
		{
			"single multipolygon demoted",
			MultiPolygon{{tiny}, {square}},
			geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
				{{410, 410}, {819, 410}, {819, 819}, {410, 819}, {410, 410}},
			}),
			false,
		},
		{
			"single member collection demoted",
			GeometryCollection{Point{X: 0.75, Y: 0.25}, Polygon{tiny}},
			geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{2048, 2048}),
			false,
		},
		{
			"collection",
			GeometryCollection{Point{X: 0.75, Y: 0.25}, Polygon{tiny}, Polygon{square}},
			geom.NewGeometryCollection().MustPush(
				geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{2048, 2048}),
				geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
					{{410, 410}, {819, 410}, {819, 819}, {410, 819}, {410, 410}},
				}),
			),
			false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewFeature(tt.g, map[string]interface{}{"name": tt.name}, "id")
			require.NotNil(t, f)

			it := newInternalTile(Features{f}, 1, 1, 0, 4096, 1e-4, false)
			assert.Equal(t, f.NumPoints, it.tile.NumPoints)
			assert.True(t, it.tile.NumSimplified <= it.tile.NumPoints)

			if tt.wantNone {
				assert.Empty(t, it.tile.Features)
				assert.True(t, it.tile.IsEmpty())
				return
			}

			require.Len(t, it.tile.Features, 1)
			got := it.tile.Features[0]
			assert.Equal(t, "id", got.ID)
			assert.Equal(t, tt.name, got.Properties["name"])
			assert.Equal(t, tt.want, got.Geometry)
		})
	}
}

func TestInternalTile_LineMetrics(t *testing.T) {
	l := newLine(retained(pts(0.5, 0, 0.75, 0.25)))
	l.Dist = 1
	l.SegStart = 0.25
	l.SegEnd = 0.5

	props := map[string]interface{}{"name": "line"}
	f := NewFeature(l, props, "l")

	it := newInternalTile(Features{f}, 1, 1, 0, 4096, 1e-4, true)
	require.Len(t, it.tile.Features, 1)

	got := it.tile.Features[0].Properties
	assert.Equal(t, "line", got["name"])
	assert.Equal(t, 0.25, got[ClipStartProperty])
	assert.Equal(t, 0.5, got[ClipEndProperty])

	// the source properties are not modified
	assert.Len(t, props, 1)
}

func TestInternalTile_BBox(t *testing.T) {
	features := Features{
		NewFeature(Point{X: 0.6, Y: 0.1}, nil, "a"),
		NewFeature(Point{X: 0.7, Y: 0.3}, nil, "b"),
	}

	it := newInternalTile(features, 1, 1, 0, 4096, 0, false)
	assert.Equal(t, 0.6, it.bbox.Min.X)
	assert.Equal(t, 0.1, it.bbox.Min.Y)
	assert.Equal(t, 0.7, it.bbox.Max.X)
	assert.Equal(t, 0.3, it.bbox.Max.Y)

	empty := newInternalTile(nil, 1, 1, 0, 4096, 0, false)
	assert.True(t, empty.bbox.Min.X > empty.bbox.Max.X)
	assert.True(t, empty.tile.IsEmpty())
}

func TestTile_GeoJSON(t *testing.T) {
	it := newInternalTile(Features{NewFeature(Point{X: 0.75, Y: 0.25}, nil, "p")}, 1, 1, 0, 4096, 0, false)

	b, err := it.tile.GeoJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"FeatureCollection"`)
	assert.Contains(t, string(b), `[2048,2048]`)

	var nilTile *Tile
	assert.True(t, nilTile.IsEmpty())
	assert.Empty(t, nilTile.FeatureCollection().Features)
}
