package main

import (
	"fmt"
	"os"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/namsral/flag"

	"github.com/akhenakh/geojsonvt/index/dbindex"
	"github.com/akhenakh/geojsonvt/loglevel"
	"github.com/akhenakh/geojsonvt/storage"
)

const appName = "vtreader"

var (
	logLevel = flag.String("logLevel", "WARN", "DEBUG|INFO|WARN|ERROR")
	dbPath   = flag.String("dbPath", "tiles.db", "Database path")
	dbType   = flag.String("dbType", storage.BBolt, "Database type: bbolt|leveldb")
	showInfo = flag.Bool("infos", false, "print the export infos")

	z = flag.Int("z", 0, "tile zoom")
	x = flag.Int("x", 0, "tile x")
	y = flag.Int("y", 0, "tile y")
)

func main() {
	flag.Parse()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

	store, clean, err := storage.Open(*dbType, *dbPath, true, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open storage", "error", err, "db_path", *dbPath)
		os.Exit(2)
	}
	defer clean()

	idx, err := dbindex.New(store)
	if err != nil {
		level.Error(logger).Log("msg", "failed to read infos", "error", err)
		clean()
		os.Exit(2)
	}

	if *showInfo {
		fmt.Print(idx.Infos())
		if counter, ok := store.(storage.TileCounter); ok {
			count, err := counter.TileCount()
			if err != nil {
				level.Error(logger).Log("msg", "failed to count tiles", "error", err)
				clean()
				os.Exit(2)
			}
			fmt.Printf("StoredTiles %d\n", count)
		}
		return
	}

	if *z < 0 || *z > 255 {
		level.Error(logger).Log("msg", "invalid zoom", "z", *z)
		clean()
		os.Exit(2)
	}

	t, err := idx.Tile(uint8(*z), *x, *y)
	if err != nil {
		level.Error(logger).Log("msg", "failed to read tile", "error", err)
		clean()
		os.Exit(2)
	}

	b, err := t.GeoJSON()
	if err != nil {
		level.Error(logger).Log("msg", "failed to encode tile", "error", err)
		clean()
		os.Exit(2)
	}

	level.Info(logger).Log("msg", "tile read",
		"features", len(t.Features),
		"points", t.NumPoints,
		"simplified", t.NumSimplified,
	)

	fmt.Println(string(b))
}
