package geojsonvt

import (
	"encoding/binary"
	"io/ioutil"
	"math"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const (
	tilePrefix = 'T'
	infoKey    = 'i'

	// MemoryStrategy serves tiles from a live index
	MemoryStrategy = "memory"
	// DBStrategy serves tiles exported to a DB
	DBStrategy = "db"
)

// TileKey returns the DB key of the tile z/x/y
func TileKey(z uint8, x, y uint32) []byte {
	k := make([]byte, 1+8)
	k[0] = tilePrefix
	binary.BigEndian.PutUint64(k[1:], ToID(z, x, y))
	return k
}

// TilePrefix prefix of every tile key
func TilePrefix() byte {
	return tilePrefix
}

func InfoKey() []byte {
	return []byte{infoKey}
}

// ReadFeatureCollection reads a GeoJSON file
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read GeoJSON file %s", path)
	}
	return FeatureCollectionFromJSON(b)
}

// FlagOptions index parameters as parsed from command line flags
type FlagOptions struct {
	MaxZoom        int
	IndexMaxZoom   int
	IndexMaxPoints int
	Tolerance      float64
	Extent         int
	Buffer         int
	LineMetrics    bool
	GenerateID     bool
}

// Options range checks the flag values and converts them to Options
func (fo FlagOptions) Options() (Options, error) {
	if fo.MaxZoom < 0 || fo.MaxZoom > MaxZoomLimit {
		return Options{}, errors.Errorf("max zoom %d out of range [0, %d]", fo.MaxZoom, MaxZoomLimit)
	}
	if fo.IndexMaxZoom < 0 || fo.IndexMaxZoom > MaxZoomLimit {
		return Options{}, errors.Errorf("index max zoom %d out of range [0, %d]", fo.IndexMaxZoom, MaxZoomLimit)
	}
	if fo.IndexMaxPoints < 0 || int64(fo.IndexMaxPoints) > math.MaxUint32 {
		return Options{}, errors.Errorf("index max points %d out of range [0, %d]", fo.IndexMaxPoints, uint32(math.MaxUint32))
	}
	if fo.Extent < 1 || fo.Extent > math.MaxUint16 {
		return Options{}, errors.Errorf("extent %d out of range [1, %d]", fo.Extent, math.MaxUint16)
	}
	if fo.Buffer < 0 || fo.Buffer > math.MaxUint16 {
		return Options{}, errors.Errorf("buffer %d out of range [0, %d]", fo.Buffer, math.MaxUint16)
	}
	if fo.Tolerance < 0 {
		return Options{}, errors.Errorf("tolerance %g can't be negative", fo.Tolerance)
	}

	opts := Options{
		MaxZoom:        uint8(fo.MaxZoom),
		IndexMaxZoom:   uint8(fo.IndexMaxZoom),
		IndexMaxPoints: uint32(fo.IndexMaxPoints),
		GenerateID:     fo.GenerateID,
		Tile: TileOptions{
			Tolerance:   fo.Tolerance,
			Extent:      uint16(fo.Extent),
			Buffer:      uint16(fo.Buffer),
			LineMetrics: fo.LineMetrics,
		},
	}

	return opts, opts.Validate()
}
