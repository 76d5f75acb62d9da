// Package geojsonvt slices GeoJSON data into vector tiles on the fly.
//
// Features are projected once into the unit square, simplified with
// per-zoom tolerances, then recursively clipped into a quadtree of tiles.
// Shallow tiles are built when the index is created, deeper ones are
// generated on demand by GetTile.
package geojsonvt

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// MaxZoomLimit highest zoom an index can be built for
const MaxZoomLimit = 24

// TileOptions tile geometry parameters
type TileOptions struct {
	// Tolerance simplification tolerance, higher means simpler
	Tolerance float64
	// Extent tile extent
	Extent uint16
	// Buffer tile buffer on each side
	Buffer uint16
	// LineMetrics tracks the position of clipped lines along the original lines
	LineMetrics bool
}

// Options index parameters
type Options struct {
	// MaxZoom max zoom to preserve detail on
	MaxZoom uint8
	// IndexMaxZoom max zoom in the initial tile index
	IndexMaxZoom uint8
	// IndexMaxPoints max number of points per tile in the initial tile index
	IndexMaxPoints uint32
	// GenerateID replaces features ids by their position in the input
	GenerateID bool

	Tile TileOptions
}

// DefaultTileOptions returns the default tile parameters
func DefaultTileOptions() TileOptions {
	return TileOptions{
		Tolerance: 3,
		Extent:    4096,
		Buffer:    64,
	}
}

// DefaultOptions returns the default index parameters
func DefaultOptions() Options {
	return Options{
		MaxZoom:        18,
		IndexMaxZoom:   5,
		IndexMaxPoints: 100000,
		Tile:           DefaultTileOptions(),
	}
}

// Validate checks the options are usable to build an index
func (o Options) Validate() error {
	if o.MaxZoom > MaxZoomLimit {
		return errors.Errorf("max zoom %d is higher than %d", o.MaxZoom, MaxZoomLimit)
	}
	if o.IndexMaxZoom > o.MaxZoom {
		return errors.Errorf("index max zoom %d is higher than max zoom %d", o.IndexMaxZoom, o.MaxZoom)
	}
	if o.Tile.Extent == 0 {
		return errors.New("tile extent can't be 0")
	}
	return nil
}

// ToID returns a unique identifier for the tile z/x/y
func ToID(z uint8, x, y uint32) uint64 {
	return ((uint64(1)<<z)*uint64(y)+uint64(x))*32 + uint64(z)
}

// GeometryToTile builds the single tile z/x/y from fc without any index
func GeometryToTile(fc *geojson.FeatureCollection, z uint8, x, y uint32, opts TileOptions, wrapped, clipped bool) (*Tile, error) {
	if opts.Extent == 0 {
		return nil, errors.New("tile extent can't be 0")
	}

	z2 := math.Exp2(float64(z))
	tolerance := (opts.Tolerance / float64(opts.Extent)) / z2

	features, err := convert(fc, tolerance, false)
	if err != nil {
		return nil, err
	}

	if wrapped {
		features = wrap(features, float64(opts.Buffer)/float64(opts.Extent), opts.LineMetrics)
	}

	if clipped || opts.LineMetrics {
		p := float64(opts.Buffer) / float64(opts.Extent)

		left := clip(features, (float64(x)-p)/z2, (float64(x)+1+p)/z2, -1, 2, axisX, opts.LineMetrics)
		features = clip(left, (float64(y)-p)/z2, (float64(y)+1+p)/z2, -1, 2, axisY, opts.LineMetrics)
	}

	it := newInternalTile(features, z, x, y, opts.Extent, tolerance, opts.LineMetrics)

	return &it.tile, nil
}

// FeatureCollectionFromJSON decodes a GeoJSON geometry, feature or feature collection
// into a feature collection
func FeatureCollectionFromJSON(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "can't decode GeoJSON")
	}

	switch head.Type {
	case "FeatureCollection":
		var raw struct {
			Features []json.RawMessage `json:"features"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, "can't decode GeoJSON feature collection")
		}
		fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(raw.Features))}
		for i, fdata := range raw.Features {
			f, err := featureFromJSON(fdata)
			if err != nil {
				return nil, errors.Wrapf(err, "can't decode GeoJSON feature #%d", i)
			}
			fc.Features = append(fc.Features, f)
		}
		return fc, nil
	case "Feature":
		f, err := featureFromJSON(data)
		if err != nil {
			return nil, errors.Wrap(err, "can't decode GeoJSON feature")
		}
		return &geojson.FeatureCollection{Features: []*geojson.Feature{f}}, nil
	case "":
		return nil, errors.New("GeoJSON object without type")
	}

	var t geom.T
	if err := geojson.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "can't decode GeoJSON %s", head.Type)
	}

	return &geojson.FeatureCollection{Features: []*geojson.Feature{{Geometry: t}}}, nil
}

// featureFromJSON decodes a GeoJSON feature, numeric ids are kept in their string form
func featureFromJSON(data []byte) (*geojson.Feature, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	if id, ok := fields["id"]; ok {
		var n json.Number
		if err := json.Unmarshal(id, &n); err == nil && n != "" {
			b, err := json.Marshal(n.String())
			if err != nil {
				return nil, err
			}
			fields["id"] = b
			if data, err = json.Marshal(fields); err != nil {
				return nil, err
			}
		}
	}

	f := &geojson.Feature{}
	if err := f.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return f, nil
}
