package geojsonvt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func TestToID(t *testing.T) {
	tests := []struct {
		z    uint8
		x, y uint32
		want uint64
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{1, 1, 0, 33},
		{1, 0, 1, 65},
		{2, 3, 3, 482},
		{24, 1<<24 - 1, 1<<24 - 1, ((1<<24)*(1<<24-1) + 1<<24 - 1) * 32 + 24},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToID(tt.z, tt.x, tt.y), "ToID(%d, %d, %d)", tt.z, tt.x, tt.y)
	}
}

func TestToID_Unique(t *testing.T) {
	seen := make(map[uint64]TileCoord)
	for z := uint8(0); z <= 6; z++ {
		for x := uint32(0); x < 1<<z; x++ {
			for y := uint32(0); y < 1<<z; y++ {
				id := ToID(z, x, y)
				c := TileCoord{Z: z, X: x, Y: y}
				if prev, ok := seen[id]; ok {
					t.Fatalf("ToID collision between %s and %s", prev, c)
				}
				seen[id] = c
			}
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(o *Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"max zoom too high", func(o *Options) { o.MaxZoom = 25 }, true},
		{"max zoom limit", func(o *Options) { o.MaxZoom = 24 }, false},
		{"index max zoom over max zoom", func(o *Options) { o.MaxZoom = 4 }, true},
		{"zero extent", func(o *Options) { o.Tile.Extent = 0 }, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := DefaultOptions()
			tt.mod(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, uint8(18), o.MaxZoom)
	assert.Equal(t, uint8(5), o.IndexMaxZoom)
	assert.Equal(t, uint32(100000), o.IndexMaxPoints)
	assert.False(t, o.GenerateID)
	assert.Equal(t, 3.0, o.Tile.Tolerance)
	assert.Equal(t, uint16(4096), o.Tile.Extent)
	assert.Equal(t, uint16(64), o.Tile.Buffer)
	assert.False(t, o.Tile.LineMetrics)
}

func TestGeometryToTile(t *testing.T) {
	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				ID:       "origin",
				Geometry: geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{0, 0}),
			},
		},
	}

	tile, err := GeometryToTile(fc, 0, 0, 0, DefaultTileOptions(), false, false)
	require.NoError(t, err)
	require.Len(t, tile.Features, 1)
	assert.Equal(t, "origin", tile.Features[0].ID)
	assert.Equal(t, geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{2048, 2048}), tile.Features[0].Geometry)

	// clipped away from another tile
	tile, err = GeometryToTile(fc, 2, 0, 0, DefaultTileOptions(), true, true)
	require.NoError(t, err)
	assert.True(t, tile.IsEmpty())

	_, err = GeometryToTile(fc, 0, 0, 0, TileOptions{}, false, false)
	require.Error(t, err)
}

func TestGeometryToTile_LineMetrics(t *testing.T) {
	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				ID:         "equator",
				Geometry:   geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{-90, 0}, {90, 0}}),
				Properties: map[string]interface{}{"name": "equator"},
			},
		},
	}

	opts := DefaultTileOptions()
	opts.LineMetrics = true

	// line metrics implies clipping
	tile, err := GeometryToTile(fc, 1, 1, 0, opts, false, false)
	require.NoError(t, err)
	require.Len(t, tile.Features, 1)

	f := tile.Features[0]
	assert.Equal(t, geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{-64, 4096}, {2048, 4096}}), f.Geometry)
	assert.Equal(t, "equator", f.Properties["name"])
	assert.InDelta(t, 0.484375, f.Properties[ClipStartProperty], 1e-9)
	assert.InDelta(t, 1, f.Properties[ClipEndProperty], 1e-9)
}

func TestFeatureCollectionFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []string
		wantErr bool
	}{
		{
			"geometry",
			`{"type":"Point","coordinates":[1,2]}`,
			[]string{""},
			false,
		},
		{
			"feature",
			`{"type":"Feature","id":"f","geometry":{"type":"LineString","coordinates":[[1,2],[3,4]]},"properties":{"a":"b"}}`,
			[]string{"f"},
			false,
		},
		{
			"collection",
			`{"type":"FeatureCollection","features":[
				{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}},
				{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]},"properties":{}}
			]}`,
			[]string{"", ""},
			false,
		},
		{
			"numeric ids",
			`{"type":"FeatureCollection","features":[
				{"type":"Feature","id":1,"geometry":{"type":"Point","coordinates":[1,2]},"properties":{}},
				{"type":"Feature","id":"two","geometry":{"type":"Point","coordinates":[3,4]},"properties":{}},
				{"type":"Feature","id":3.5,"geometry":{"type":"Point","coordinates":[5,6]},"properties":{}}
			]}`,
			[]string{"1", "two", "3.5"},
			false,
		},
		{
			"feature numeric id",
			`{"type":"Feature","id":42,"geometry":{"type":"Point","coordinates":[1,2]},"properties":null}`,
			[]string{"42"},
			false,
		},
		{"no type", `{"coordinates":[1,2]}`, nil, true},
		{"invalid json", `{`, nil, true},
		{"unknown type", `{"type":"Circle","coordinates":[1,2]}`, nil, true},
		{"invalid feature", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Circle"}}]}`, nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fc, err := FeatureCollectionFromJSON([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("FeatureCollectionFromJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			var ids []string
			for _, f := range fc.Features {
				assert.NotNil(t, f.Geometry)
				ids = append(ids, f.ID)
			}
			if !cmp.Equal(ids, tt.wantIDs) {
				t.Errorf("FeatureCollectionFromJSON() ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}
