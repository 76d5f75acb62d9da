package bbolt

import (
	"bytes"
	"fmt"

	"github.com/go-kit/kit/log/level"
	"go.etcd.io/bbolt"

	"github.com/akhenakh/geojsonvt"
)

// WriteTile stores t at c
func (s *Storage) WriteTile(c geojsonvt.TileCoord, t *geojsonvt.Tile) error {
	var buf bytes.Buffer
	if err := geojsonvt.EncodeTile(&buf, t); err != nil {
		return fmt.Errorf("can't encode tile %s: %w", c, err)
	}

	err := s.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tileBucket).Put(geojsonvt.TileKey(c.Z, c.X, c.Y), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("can't write tile %s: %w", c, err)
	}

	level.Debug(s.logger).Log("msg", "tile written", "tile", c, "size", buf.Len())

	return nil
}

// ReadTile returns the tile z/x/y or EmptyTile if not stored
func (s *Storage) ReadTile(z uint8, x, y uint32) (*geojsonvt.Tile, error) {
	t := geojsonvt.EmptyTile
	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tileBucket)
		if b == nil {
			return nil
		}

		v := b.Get(geojsonvt.TileKey(z, x, y))
		if v == nil {
			return nil
		}

		var err error
		t, err = geojsonvt.DecodeTile(bytes.NewReader(v))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("can't read tile %d/%d/%d: %w", z, x, y, err)
	}

	return t, nil
}

// TileCount counts the stored tiles
func (s *Storage) TileCount() (uint32, error) {
	var count uint32
	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tileBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefix := []byte{geojsonvt.TilePrefix()}
		for key, _ := c.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, _ = c.Next() {
			count++
		}
		return nil
	})
	return count, err
}
