package bbolt

import (
	"bytes"
	"errors"
	"fmt"

	log "github.com/go-kit/kit/log"
	"go.etcd.io/bbolt"

	"github.com/akhenakh/geojsonvt"
)

var (
	tileBucket = []byte("tile")
	infoBucket = []byte("info")
)

// Storage cold storage
type Storage struct {
	*bbolt.DB
	logger log.Logger
}

// NewStorage returns a cold storage using bbolt
func NewStorage(path string, logger log.Logger) (*Storage, func() error, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	// Creating DB
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create DB at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{tileBucket, infoBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("can't create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return &Storage{
		DB:     db,
		logger: logger,
	}, db.Close, nil
}

// NewROStorage returns a read only storage using bbolt
func NewROStorage(path string, logger log.Logger) (*Storage, func() error, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	// Opening DB
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
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

	return s.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(infoBucket).Put(geojsonvt.InfoKey(), buf.Bytes())
	})
}

// LoadIndexInfos loads index infos from the DB
func (s *Storage) LoadIndexInfos() (*geojsonvt.IndexInfos, error) {
	var infos *geojsonvt.IndexInfos

	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(infoBucket)
		if b == nil {
			return errors.New("can't find infos bucket, invalid DB")
		}
		value := b.Get(geojsonvt.InfoKey())
		if value == nil {
			return errors.New("can't find infos entries, invalid DB")
		}
		var err error
		infos, err = geojsonvt.DecodeIndexInfos(bytes.NewReader(value))
		return err
	})

	return infos, err
}
