package memindex

import (
	"sync"

	log "github.com/go-kit/kit/log"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/akhenakh/geojsonvt"
)

// Index serves tiles from a live TileIndex, safe for concurrent use
type Index struct {
	sync.Mutex
	tidx *geojsonvt.TileIndex
}

// New builds a TileIndex from fc
func New(fc *geojson.FeatureCollection, opts geojsonvt.Options, logger log.Logger) (*Index, error) {
	tidx, err := geojsonvt.New(fc, opts, logger)
	if err != nil {
		return nil, err
	}

	return &Index{tidx: tidx}, nil
}

// Tile returns the tile z/x/y, drilling down if needed
func (idx *Index) Tile(z uint8, x, y int) (*geojsonvt.Tile, error) {
	idx.Lock()
	defer idx.Unlock()

	return idx.tidx.Tile(z, x, y)
}

// Stats tiles count per zoom
func (idx *Index) Stats() map[uint8]uint32 {
	idx.Lock()
	defer idx.Unlock()

	return idx.tidx.Stats()
}

// Total tiles count
func (idx *Index) Total() uint32 {
	idx.Lock()
	defer idx.Unlock()

	return idx.tidx.Total()
}

// Infos describes the index
func (idx *Index) Infos() *geojsonvt.IndexInfos {
	idx.Lock()
	defer idx.Unlock()

	return &geojsonvt.IndexInfos{
		FeatureCount: uint32(idx.tidx.FeatureCount()),
		MaxZoom:      idx.tidx.Options().MaxZoom,
		TileCount:    idx.tidx.Total(),
	}
}
