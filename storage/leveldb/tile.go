package leveldb

import (
	"bytes"
	"fmt"

	"github.com/go-kit/kit/log/level"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/akhenakh/geojsonvt"
)

// WriteTile stores t at c
func (s *Storage) WriteTile(c geojsonvt.TileCoord, t *geojsonvt.Tile) error {
	var buf bytes.Buffer
	if err := geojsonvt.EncodeTile(&buf, t); err != nil {
		return fmt.Errorf("can't encode tile %s: %w", c, err)
	}

	if err := s.Put(geojsonvt.TileKey(c.Z, c.X, c.Y), buf.Bytes(), nil); err != nil {
		return fmt.Errorf("can't write tile %s: %w", c, err)
	}

	level.Debug(s.logger).Log("msg", "tile written", "tile", c, "size", buf.Len())

	return nil
}

// ReadTile returns the tile z/x/y or EmptyTile if not stored
func (s *Storage) ReadTile(z uint8, x, y uint32) (*geojsonvt.Tile, error) {
	v, err := s.Get(geojsonvt.TileKey(z, x, y), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return geojsonvt.EmptyTile, nil
		}
		return nil, fmt.Errorf("can't read tile %d/%d/%d: %w", z, x, y, err)
	}

	t, err := geojsonvt.DecodeTile(bytes.NewReader(v))
	if err != nil {
		return nil, fmt.Errorf("can't decode tile %d/%d/%d: %w", z, x, y, err)
	}

	return t, nil
}

// TileCount counts the stored tiles
func (s *Storage) TileCount() (uint32, error) {
	iter := s.NewIterator(util.BytesPrefix([]byte{geojsonvt.TilePrefix()}), &opt.ReadOptions{
		DontFillCache: true,
	})
	var count uint32
	for iter.Next() {
		count++
	}
	iter.Release()
	return count, iter.Error()
}
