package dbindex

import (
	"github.com/akhenakh/geojsonvt"
)

// Index serves tiles exported to a DB
type Index struct {
	storage geojsonvt.Store
	infos   *geojsonvt.IndexInfos
}

// New returns an index reading from storage
func New(storage geojsonvt.Store) (*Index, error) {
	infos, err := storage.LoadIndexInfos()
	if err != nil {
		return nil, err
	}

	return &Index{
		storage: storage,
		infos:   infos,
	}, nil
}

// Tile returns the stored tile z/x/y, EmptyTile for tiles not exported
func (idx *Index) Tile(z uint8, x, y int) (*geojsonvt.Tile, error) {
	if z > idx.infos.MaxZoom {
		return nil, geojsonvt.ErrInvalidZoom
	}

	z2 := 1 << z
	if y < 0 || y >= z2 {
		return geojsonvt.EmptyTile, nil
	}
	x = ((x % z2) + z2) % z2

	return idx.storage.ReadTile(z, uint32(x), uint32(y))
}

// Infos describes the export
func (idx *Index) Infos() *geojsonvt.IndexInfos {
	return idx.infos
}
