package geojsonvt

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

var (
	tileStoragePool = sync.Pool{
		New: func() interface{} {
			return &TileStorage{}
		},
	}
)

// Store persists rendered tiles
type Store interface {
	WriteTile(c TileCoord, t *Tile) error
	// ReadTile returns EmptyTile for missing tiles
	ReadTile(z uint8, x, y uint32) (*Tile, error)
	WriteIndexInfos(infos *IndexInfos) error
	LoadIndexInfos() (*IndexInfos, error)
}

// TileStorage on disk storage of a tile
type TileStorage struct {
	NumPoints     uint32
	NumSimplified uint32
	Features      []FeatureStorage
}

// FeatureStorage on disk storage of a tile feature
type FeatureStorage struct {
	ID         string
	Properties map[string]interface{}

	// GeometryBytes geometry in tile coordinates encoded as WKB
	GeometryBytes []byte
}

// IndexInfos used to store information about the export in DB
type IndexInfos struct {
	Filename       string
	IndexTime      time.Time
	IndexerVersion string
	FeatureCount   uint32
	MaxZoom        uint8
	TileCount      uint32
}

func (infos *IndexInfos) String() string {
	return fmt.Sprintf("Filename: %s\nIndexTime: %s\nIndexerVersion: %s\nFeatureCount %d\nMaxZoom %d\nTileCount %d\n",
		infos.Filename,
		infos.IndexTime,
		infos.IndexerVersion,
		infos.FeatureCount,
		infos.MaxZoom,
		infos.TileCount,
	)
}

// EncodeTile writes t to w as CBOR
func EncodeTile(w io.Writer, t *Tile) error {
	ts := TileStorage{
		NumPoints:     t.NumPoints,
		NumSimplified: t.NumSimplified,
		Features:      make([]FeatureStorage, len(t.Features)),
	}

	for i, f := range t.Features {
		b, err := wkb.Marshal(f.Geometry, binary.LittleEndian)
		if err != nil {
			return errors.Wrapf(err, "can't encode geometry of feature #%d", i)
		}
		ts.Features[i] = FeatureStorage{
			ID:            f.ID,
			Properties:    f.Properties,
			GeometryBytes: b,
		}
	}

	enc := cbor.NewEncoder(w, cbor.CanonicalEncOptions())
	if err := enc.Encode(ts); err != nil {
		return errors.Wrap(err, "can't encode tile")
	}
	return nil
}

// DecodeTile reads back a tile written by EncodeTile
func DecodeTile(r io.Reader) (*Tile, error) {
	ts := tileStoragePool.Get().(*TileStorage)
	defer tileStoragePool.Put(ts)
	*ts = TileStorage{}

	dec := cbor.NewDecoder(r)
	if err := dec.Decode(ts); err != nil {
		return nil, errors.Wrap(err, "can't decode tile")
	}

	t := &Tile{
		NumPoints:     ts.NumPoints,
		NumSimplified: ts.NumSimplified,
		Features:      make([]*geojson.Feature, len(ts.Features)),
	}

	for i, fs := range ts.Features {
		g, err := wkb.Unmarshal(fs.GeometryBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "can't decode geometry of feature #%d", i)
		}
		t.Features[i] = &geojson.Feature{
			ID:         fs.ID,
			Geometry:   g,
			Properties: fs.Properties,
		}
	}

	return t, nil
}

// EncodeIndexInfos writes infos to w as CBOR
func EncodeIndexInfos(w io.Writer, infos *IndexInfos) error {
	enc := cbor.NewEncoder(w, cbor.CanonicalEncOptions())
	return enc.Encode(infos)
}

// DecodeIndexInfos reads back infos written by EncodeIndexInfos
func DecodeIndexInfos(r io.Reader) (*IndexInfos, error) {
	infos := &IndexInfos{}
	dec := cbor.NewDecoder(r)
	if err := dec.Decode(infos); err != nil {
		return nil, err
	}
	return infos, nil
}
