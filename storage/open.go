// Package storage opens the tile stores by name
package storage

import (
	"fmt"

	log "github.com/go-kit/kit/log"

	"github.com/akhenakh/geojsonvt"
	"github.com/akhenakh/geojsonvt/storage/bbolt"
	"github.com/akhenakh/geojsonvt/storage/leveldb"
)

const (
	BBolt   = "bbolt"
	LevelDB = "leveldb"
)

// TileCounter is implemented by stores able to count their tiles
type TileCounter interface {
	TileCount() (uint32, error)
}

// Open returns the store of type dbType at path, read only if ro
func Open(dbType, path string, ro bool, logger log.Logger) (geojsonvt.Store, func() error, error) {
	switch dbType {
	case BBolt:
		open := bbolt.NewStorage
		if ro {
			open = bbolt.NewROStorage
		}
		s, close, err := open(path, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, close, nil
	case LevelDB:
		open := leveldb.NewStorage
		if ro {
			open = leveldb.NewROStorage
		}
		s, close, err := open(path, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage type %q", dbType)
}
