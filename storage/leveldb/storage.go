package leveldb

import (
	"bytes"
	"errors"
	"fmt"

	log "github.com/go-kit/kit/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/akhenakh/geojsonvt"
)

// Storage cold storage
type Storage struct {
	*leveldb.DB
	logger log.Logger
}

// NewStorage returns a cold storage using leveldb
func NewStorage(path string, logger log.Logger) (*Storage, func() error, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	// Creating DB
	o := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to created DB at %s: %w", path, err)
	}

	return &Storage{
		DB:     db,
		logger: logger,
	}, db.Close, nil
}

// NewROStorage returns a read only storage using leveldb
func NewROStorage(path string, logger log.Logger) (*Storage, func() error, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	// Opening DB
	o := &opt.Options{
		Filter:   filter.NewBloomFilter(10),
		ReadOnly: true,
	}
	db, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open DB for reading at %s: %w", path, err)
	}

	return &Storage{
		DB:     db,
		logger: logger,
	}, db.Close, nil
}

// WriteIndexInfos stores index infos in the DB
func (s *Storage) WriteIndexInfos(infos *geojsonvt.IndexInfos) error {
	var buf bytes.Buffer
	if err := geojsonvt.EncodeIndexInfos(&buf, infos); err != nil {
		return fmt.Errorf("can't encode infos: %w", err)
	}

	return s.Put(geojsonvt.InfoKey(), buf.Bytes(), &opt.WriteOptions{Sync: true})
}

// LoadIndexInfos loads index infos from the DB
func (s *Storage) LoadIndexInfos() (*geojsonvt.IndexInfos, error) {
	v, err := s.Get(geojsonvt.InfoKey(), &opt.ReadOptions{
		DontFillCache: true,
	})
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, errors.New("can't find infos entries, invalid DB")
		}
		return nil, err
	}

	return geojsonvt.DecodeIndexInfos(bytes.NewReader(v))
}
