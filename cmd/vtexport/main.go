package main

import (
	"os"
	"path/filepath"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/namsral/flag"

	"github.com/akhenakh/geojsonvt"
	"github.com/akhenakh/geojsonvt/loglevel"
	"github.com/akhenakh/geojsonvt/storage"
)

const appName = "vtexport"

var (
	version = "no version from LDFLAGS"

	logLevel    = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	geojsonPath = flag.String("geojsonPath", "data.geojson", "GeoJSON file to index")
	dbPath      = flag.String("dbPath", "tiles.db", "Database path out")
	dbType      = flag.String("dbType", storage.BBolt, "Database type: bbolt|leveldb")

	exportMaxZoom  = flag.Int("exportMaxZoom", 10, "deepest zoom to export")
	maxZoom        = flag.Int("maxZoom", 14, "max zoom to preserve detail on")
	indexMaxZoom   = flag.Int("indexMaxZoom", 5, "max zoom in the initial tile index")
	indexMaxPoints = flag.Int("indexMaxPoints", 100000, "max number of points per tile in the initial index")
	tolerance      = flag.Float64("tolerance", 3, "simplification tolerance")
	extent         = flag.Int("extent", 4096, "tile extent")
	buffer         = flag.Int("buffer", 64, "tile buffer on each side")
	lineMetrics    = flag.Bool("lineMetrics", false, "track clipped lines positions")
	generateID     = flag.Bool("generateID", false, "generate features ids")
)

func main() {
	flag.Parse()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

	if *exportMaxZoom < 0 || *exportMaxZoom > *maxZoom {
		level.Error(logger).Log("msg", "export max zoom must be between 0 and max zoom",
			"export_max_zoom", *exportMaxZoom, "max_zoom", *maxZoom)
		os.Exit(2)
	}

	fc, err := geojsonvt.ReadFeatureCollection(*geojsonPath)
	if err != nil {
		level.Error(logger).Log("msg", "failed to read GeoJSON", "error", err, "geojson_path", *geojsonPath)
		os.Exit(2)
	}

	opts, err := geojsonvt.FlagOptions{
		MaxZoom:        *maxZoom,
		IndexMaxZoom:   *indexMaxZoom,
		IndexMaxPoints: *indexMaxPoints,
		Tolerance:      *tolerance,
		Extent:         *extent,
		Buffer:         *buffer,
		LineMetrics:    *lineMetrics,
		GenerateID:     *generateID,
	}.Options()
	if err != nil {
		level.Error(logger).Log("msg", "invalid index options", "error", err)
		os.Exit(2)
	}

	idx, err := geojsonvt.New(fc, opts, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to build index", "error", err)
		os.Exit(2)
	}

	store, clean, err := storage.Open(*dbType, *dbPath, false, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open storage", "error", err, "db_path", *dbPath)
		os.Exit(2)
	}
	defer clean()

	start := time.Now()

	var count uint32
	err = geojsonvt.Walk(idx, uint8(*exportMaxZoom), func(c geojsonvt.TileCoord, t *geojsonvt.Tile) error {
		count++
		return store.WriteTile(c, t)
	})
	if err != nil {
		level.Error(logger).Log("msg", "failed exporting tiles", "error", err)
		clean()
		os.Exit(2)
	}

	infos := &geojsonvt.IndexInfos{
		Filename:       filepath.Base(*geojsonPath),
		IndexTime:      time.Now(),
		IndexerVersion: version,
		FeatureCount:   uint32(idx.FeatureCount()),
		MaxZoom:        uint8(*exportMaxZoom),
		TileCount:      count,
	}

	if err := store.WriteIndexInfos(infos); err != nil {
		level.Error(logger).Log("msg", "failed writing IndexInfos to DB", "error", err, "db_path", *dbPath)
		clean()
		os.Exit(2)
	}

	level.Info(logger).Log("msg", "export done",
		"tile_count", count,
		"feature_count", infos.FeatureCount,
		"duration", time.Since(start),
	)
}
