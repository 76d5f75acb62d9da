package geojsonvt

import (
	"fmt"
	"math"
	"sort"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrInvalidZoom returned by tile sources for zooms they can't serve
var ErrInvalidZoom = errors.New("invalid zoom")

// TileSource offers different strategies to serve tiles
type TileSource interface {
	// Tile returns the tile z/x/y, EmptyTile when there is nothing to draw
	Tile(z uint8, x, y int) (*Tile, error)
}

// TileCoord coordinates of a tile
type TileCoord struct {
	Z    uint8
	X, Y uint32
}

func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// TileIndex holds projected features and the tiles already generated,
// it is not safe for concurrent use
type TileIndex struct {
	opts   Options
	logger log.Logger

	tiles map[uint64]*internalTile
	stats map[uint8]uint32
	total uint32

	featureCount int
}

// New projects fc and builds the first levels of tiles
func New(fc *geojson.FeatureCollection, opts Options, logger log.Logger) (*TileIndex, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	idx := &TileIndex{
		opts:   opts,
		logger: log.With(logger, "component", "tileindex"),
		tiles:  make(map[uint64]*internalTile),
		stats:  make(map[uint8]uint32),
	}

	z2 := math.Exp2(float64(opts.MaxZoom))
	tolerance := (opts.Tile.Tolerance / float64(opts.Tile.Extent)) / z2

	features, err := convert(fc, tolerance, opts.GenerateID)
	if err != nil {
		return nil, errors.Wrap(err, "can't convert features")
	}
	idx.featureCount = len(features)

	features = wrap(features, float64(opts.Tile.Buffer)/float64(opts.Tile.Extent), opts.Tile.LineMetrics)

	idx.splitTile(features, 0, 0, 0, 0, 0, 0)

	level.Debug(idx.logger).Log(
		"msg", "index built",
		"features", idx.featureCount,
		"tiles", idx.total,
	)

	return idx, nil
}

// Options returns the options the index was built with
func (idx *TileIndex) Options() Options {
	return idx.opts
}

// FeatureCount number of features indexed
func (idx *TileIndex) FeatureCount() int {
	return idx.featureCount
}

// Total number of tiles generated so far
func (idx *TileIndex) Total() uint32 {
	return idx.total
}

// Stats number of tiles generated so far per zoom
func (idx *TileIndex) Stats() map[uint8]uint32 {
	stats := make(map[uint8]uint32, len(idx.stats))
	for z, c := range idx.stats {
		stats[z] = c
	}
	return stats
}

// Coords returns the coordinates of every generated tile, sorted by zoom then y then x
func (idx *TileIndex) Coords() []TileCoord {
	coords := make([]TileCoord, 0, len(idx.tiles))
	for _, it := range idx.tiles {
		coords = append(coords, TileCoord{Z: it.z, X: it.x, Y: it.y})
	}
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return coords
}

// GetTile returns the tile z/x/y, generating it from its nearest ancestor if needed.
// x wraps around the world, y out of range returns EmptyTile.
// It panics if z is higher than the index max zoom.
func (idx *TileIndex) GetTile(z uint8, x, y int) *Tile {
	if z > idx.opts.MaxZoom {
		panic(fmt.Sprintf("requested zoom %d higher than max zoom %d", z, idx.opts.MaxZoom))
	}

	z2 := 1 << z
	if y < 0 || y >= z2 {
		return EmptyTile
	}
	ux := uint32(((x % z2) + z2) % z2)
	uy := uint32(y)

	id := ToID(z, ux, uy)
	if it, ok := idx.tiles[id]; ok {
		return &it.tile
	}

	parent := idx.findParent(z, ux, uy)
	if parent == nil {
		panic(fmt.Sprintf("parent tile not found for %d/%d/%d", z, ux, uy))
	}

	level.Debug(idx.logger).Log(
		"msg", "drilling down",
		"from", TileCoord{Z: parent.z, X: parent.x, Y: parent.y},
		"to", TileCoord{Z: z, X: ux, Y: uy},
	)

	idx.splitTile(parent.sourceFeatures, parent.z, parent.x, parent.y, z, ux, uy)

	if it, ok := idx.tiles[id]; ok {
		return &it.tile
	}

	return EmptyTile
}

// Tile implements TileSource, invalid zooms are reported as ErrInvalidZoom
func (idx *TileIndex) Tile(z uint8, x, y int) (*Tile, error) {
	if z > idx.opts.MaxZoom {
		return nil, ErrInvalidZoom
	}
	return idx.GetTile(z, x, y), nil
}

// findParent returns the nearest generated ancestor of z/x/y
func (idx *TileIndex) findParent(z uint8, x, y uint32) *internalTile {
	for z > 0 {
		z--
		x /= 2
		y /= 2
		if it, ok := idx.tiles[ToID(z, x, y)]; ok {
			return it
		}
	}
	return nil
}

// splitTile creates the tile z/x/y from features then recursively its children.
// cz/cx/cy is the target tile when drilling down, 0/0/0 during the first pass.
func (idx *TileIndex) splitTile(features Features, z uint8, x, y uint32, cz uint8, cx, cy uint32) {
	z2 := math.Exp2(float64(z))
	id := ToID(z, x, y)

	it, ok := idx.tiles[id]
	if !ok {
		tolerance := 0.0
		if z != idx.opts.MaxZoom {
			tolerance = idx.opts.Tile.Tolerance / (z2 * float64(idx.opts.Tile.Extent))
		}

		it = newInternalTile(features, z, x, y, idx.opts.Tile.Extent, tolerance, idx.opts.Tile.LineMetrics)
		idx.tiles[id] = it
		idx.stats[z]++
		idx.total++

		level.Debug(idx.logger).Log(
			"msg", "tile created",
			"tile", TileCoord{Z: z, X: x, Y: y},
			"features", len(features),
			"points", it.tile.NumPoints,
			"simplified", it.tile.NumSimplified,
		)
	}

	if len(features) == 0 {
		return
	}

	if cz == 0 {
		// first pass, stop at the index max zoom or when the tile is simple enough
		if z == idx.opts.IndexMaxZoom || it.tile.NumPoints <= idx.opts.IndexMaxPoints {
			it.sourceFeatures = features
			return
		}
	} else {
		// drilling down, stop at base zoom
		if z == idx.opts.MaxZoom {
			return
		}

		// target tile reached
		if z == cz {
			it.sourceFeatures = features
			return
		}

		// not an ancestor of the target tile
		m := uint32(1) << (cz - z)
		if x != cx/m || y != cy/m {
			it.sourceFeatures = features
			return
		}
	}

	p := 0.5 * float64(idx.opts.Tile.Buffer) / float64(idx.opts.Tile.Extent)
	min := it.bbox.Min
	max := it.bbox.Max
	lm := idx.opts.Tile.LineMetrics
	fx, fy := float64(x), float64(y)

	left := clip(features, (fx-p)/z2, (fx+0.5+p)/z2, min.X, max.X, axisX, lm)

	idx.splitTile(
		clip(left, (fy-p)/z2, (fy+0.5+p)/z2, min.Y, max.Y, axisY, lm),
		z+1, x*2, y*2, cz, cx, cy,
	)
	idx.splitTile(
		clip(left, (fy+0.5-p)/z2, (fy+1+p)/z2, min.Y, max.Y, axisY, lm),
		z+1, x*2, y*2+1, cz, cx, cy,
	)

	right := clip(features, (fx+0.5-p)/z2, (fx+1+p)/z2, min.X, max.X, axisX, lm)

	idx.splitTile(
		clip(right, (fy-p)/z2, (fy+0.5+p)/z2, min.Y, max.Y, axisY, lm),
		z+1, x*2+1, y*2, cz, cx, cy,
	)
	idx.splitTile(
		clip(right, (fy+0.5-p)/z2, (fy+1+p)/z2, min.Y, max.Y, axisY, lm),
		z+1, x*2+1, y*2+1, cz, cx, cy,
	)

	// sliced further down, the source geometry is no longer needed
	it.sourceFeatures = nil
}

// Walk visits depth first every non empty tile of src up to maxZoom,
// children of an empty tile are skipped
func Walk(src TileSource, maxZoom uint8, fn func(c TileCoord, t *Tile) error) error {
	return walk(src, TileCoord{}, maxZoom, fn)
}

func walk(src TileSource, c TileCoord, maxZoom uint8, fn func(c TileCoord, t *Tile) error) error {
	t, err := src.Tile(c.Z, int(c.X), int(c.Y))
	if err != nil {
		return errors.Wrapf(err, "can't get tile %s", c)
	}
	if t.IsEmpty() {
		return nil
	}

	if err := fn(c, t); err != nil {
		return err
	}

	if c.Z >= maxZoom {
		return nil
	}

	for dy := uint32(0); dy < 2; dy++ {
		for dx := uint32(0); dx < 2; dx++ {
			child := TileCoord{Z: c.Z + 1, X: c.X*2 + dx, Y: c.Y*2 + dy}
			if err := walk(src, child, maxZoom, fn); err != nil {
				return err
			}
		}
	}

	return nil
}
