package server

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/opentracing/opentracing-go"
	slog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"google.golang.org/grpc/health"

	"github.com/akhenakh/geojsonvt"
)

// Server exposes tiles over HTTP
type Server struct {
	logger       log.Logger
	healthServer *health.Server
	src          geojsonvt.TileSource
	cache        *ristretto.Cache
	appName      string
}

// Options for the server
type Options struct {
	// AppName used as the health service name
	AppName string
	// CacheSize max bytes of encoded tiles to cache, 0 disables the cache
	CacheSize int64
}

// Infoser is implemented by tile sources able to describe themselves
type Infoser interface {
	Infos() *geojsonvt.IndexInfos
}

// encodedTile a tile ready to be sent
type encodedTile struct {
	body []byte
	etag string
}

func New(src geojsonvt.TileSource, logger log.Logger, healthServer *health.Server, opts Options) (*Server, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		logger:       log.With(logger, "component", "server"),
		healthServer: healthServer,
		src:          src,
		appName:      opts.AppName,
	}

	if opts.CacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,            // number of keys to track frequency
			MaxCost:     opts.CacheSize, // bytes
			BufferItems: 64,             // number of keys per Get buffer.
		})
		if err != nil {
			return nil, fmt.Errorf("cache error: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// tile returns the GeoJSON encoded tile z/x/y, nil if the tile is empty
func (s *Server) tile(ctx context.Context, z uint8, x, y int) (resp *encodedTile, terr error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "Tile")
	defer span.Finish()

	defer func() { s.handleError(terr, span) }()

	span.LogFields(
		slog.Uint32("z", uint32(z)),
		slog.Int("x", x),
		slog.Int("y", y),
	)

	if z > geojsonvt.MaxZoomLimit {
		return nil, geojsonvt.ErrInvalidZoom
	}

	z2 := 1 << z
	if y < 0 || y >= z2 {
		tileEmptyCounter.Inc()
		return nil, nil
	}
	x = ((x % z2) + z2) % z2
	id := geojsonvt.ToID(z, uint32(x), uint32(y))

	if s.cache != nil {
		if v, found := s.cache.Get(id); found {
			tileHitCounter.Inc()
			return v.(*encodedTile), nil
		}
		tileMissCounter.Inc()
	}

	t, err := s.src.Tile(z, x, y)
	if err != nil {
		return nil, err
	}

	if t.IsEmpty() {
		level.Debug(s.logger).Log("msg", "empty tile", "z", z, "x", x, "y", y)
		tileEmptyCounter.Inc()
		return nil, nil
	}

	b, err := t.GeoJSON()
	if err != nil {
		return nil, errors.Wrapf(err, "can't encode tile %d/%d/%d", z, x, y)
	}

	et := &encodedTile{
		body: b,
		etag: fmt.Sprintf(`"%x"`, xxhash.Sum64(b)),
	}

	if s.cache != nil {
		s.cache.Set(id, et, int64(len(b)))
	}

	tileServedCounter.Inc()

	level.Debug(s.logger).Log("msg", "tile served",
		"z", z, "x", x, "y", y,
		"features", len(t.Features),
		"size", len(b),
	)

	return et, nil
}

func (s *Server) handleError(terr error, span opentracing.Span) {
	if terr == nil {
		return
	}

	// an invalid zoom is a client error
	if errors.Is(terr, geojsonvt.ErrInvalidZoom) {
		level.Debug(s.logger).Log("error", terr)
		return
	}

	errorCounter.Inc()
	span.LogFields(
		slog.String("error", terr.Error()),
	)
	span.SetTag("error", true)

	level.Error(s.logger).Log("error", terr)
}
