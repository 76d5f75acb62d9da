package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/handlers"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_opentracing "github.com/grpc-ecosystem/go-grpc-middleware/tracing/opentracing"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/namsral/flag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/akhenakh/geojsonvt"
	"github.com/akhenakh/geojsonvt/index/dbindex"
	"github.com/akhenakh/geojsonvt/index/memindex"
	"github.com/akhenakh/geojsonvt/loglevel"
	"github.com/akhenakh/geojsonvt/server"
	"github.com/akhenakh/geojsonvt/storage"
)

const appName = "vtserved"

var (
	version = "no version from LDFLAGS"

	logLevel        = flag.String("logLevel", "INFO", "DEBUG|INFO|WARN|ERROR")
	strategy        = flag.String("strategy", geojsonvt.MemoryStrategy, "Strategy to use: memory|db")
	geojsonPath     = flag.String("geojsonPath", "data.geojson", "GeoJSON file to index, memory strategy")
	dbPath          = flag.String("dbPath", "tiles.db", "Database path, db strategy")
	dbType          = flag.String("dbType", storage.BBolt, "Database type: bbolt|leveldb")
	cacheSize       = flag.Int64("cacheSize", 1<<27, "Encoded tiles cache size in bytes, 0 to disable")
	httpMetricsPort = flag.Int("httpMetricsPort", 8088, "http port")
	httpAPIPort     = flag.Int("httpAPIPort", 8080, "http API port")
	healthPort      = flag.Int("healthPort", 6666, "grpc health port")

	maxZoom        = flag.Int("maxZoom", 14, "max zoom to preserve detail on")
	indexMaxZoom   = flag.Int("indexMaxZoom", 5, "max zoom in the initial tile index")
	indexMaxPoints = flag.Int("indexMaxPoints", 100000, "max number of points per tile in the initial index")
	tolerance      = flag.Float64("tolerance", 3, "simplification tolerance")
	extent         = flag.Int("extent", 4096, "tile extent")
	buffer         = flag.Int("buffer", 64, "tile buffer on each side")
	lineMetrics    = flag.Bool("lineMetrics", false, "track clipped lines positions")
	generateID     = flag.Bool("generateID", false, "generate features ids")

	httpServer        *http.Server
	grpcHealthServer  *grpc.Server
	httpMetricsServer *http.Server
)

func main() {
	flag.Parse()

	exitcode := 0
	defer func() { os.Exit(exitcode) }()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.Caller(5), "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = loglevel.NewLevelFilterFromString(logger, *logLevel)

	stdlog.SetOutput(log.NewStdlibAdapter(logger))

	level.Info(logger).Log("msg", "Starting app", "version", version)

	var src geojsonvt.TileSource

	switch *strategy {
	case geojsonvt.MemoryStrategy:
		fc, err := geojsonvt.ReadFeatureCollection(*geojsonPath)
		if err != nil {
			level.Error(logger).Log("msg", "failed to read GeoJSON", "error", err, "geojson_path", *geojsonPath)

			exitcode = 1

			return
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

			exitcode = 1

			return
		}

		start := time.Now()

		midx, err := memindex.New(fc, opts, logger)
		if err != nil {
			level.Error(logger).Log("msg", "failed to build index", "error", err)

			exitcode = 1

			return
		}

		level.Info(logger).Log("msg", "index built",
			"tile_count", midx.Total(),
			"duration", time.Since(start),
		)

		src = midx
	case geojsonvt.DBStrategy:
		store, clean, err := storage.Open(*dbType, *dbPath, true, logger)
		if err != nil {
			level.Error(logger).Log("msg", "failed to open storage", "error", err, "db_path", *dbPath)

			exitcode = 1

			return
		}

		defer clean()

		didx, err := dbindex.New(store)
		if err != nil {
			level.Error(logger).Log("msg", "failed to read infos", "error", err)

			exitcode = 1

			return
		}

		level.Info(logger).Log("msg", "read index_infos",
			"feature_count", didx.Infos().FeatureCount,
			"tile_count", didx.Infos().TileCount,
		)

		src = didx
	default:
		level.Error(logger).Log("msg", "unknown strategy", "strategy", *strategy)

		exitcode = 2

		return
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// gRPC Health Server
	healthServer := health.NewServer()

	g.Go(func() error {
		grpc_prometheus.EnableHandlingTimeHistogram()

		grpcHealthServer = grpc.NewServer(
			grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
				grpc_opentracing.StreamServerInterceptor(),
				grpc_prometheus.StreamServerInterceptor,
			)),
			grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
				grpc_opentracing.UnaryServerInterceptor(),
				grpc_prometheus.UnaryServerInterceptor,
			)),
		)

		healthpb.RegisterHealthServer(grpcHealthServer, healthServer)
		grpc_prometheus.Register(grpcHealthServer)

		haddr := fmt.Sprintf(":%d", *healthPort)
		hln, err := net.Listen("tcp", haddr)
		if err != nil {
			level.Error(logger).Log("msg", "gRPC Health server: failed to listen", "error", err)
			os.Exit(2)
		}
		level.Info(logger).Log("msg", fmt.Sprintf("gRPC health server listening at %s", haddr))

		return grpcHealthServer.Serve(hln)
	})

	// server
	srv, err := server.New(src, logger, healthServer, server.Options{
		AppName:   appName,
		CacheSize: *cacheSize,
	})
	if err != nil {
		level.Error(logger).Log("msg", "can't get a working server", "error", err)

		exitcode = 1

		return
	}

	// web server metrics
	g.Go(func() error {
		httpMetricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpMetricsPort),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP Metrics server listening at :%d", *httpMetricsPort))

		versionGauge.WithLabelValues(version).Add(1)

		// Register Prometheus metrics handler.
		http.Handle("/metrics", promhttp.Handler())

		if err := httpMetricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	// API web server
	g.Go(func() error {
		// metrics middleware.
		metricsMwr := middleware.New(middleware.Config{
			Recorder: metrics.NewRecorder(metrics.Config{Prefix: appName}),
		})

		r := srv.Router(func(path string, h http.Handler) http.Handler {
			return metricsMwr.Handler(path, h)
		})

		httpServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpAPIPort),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			Handler:      handlers.CompressHandler(handlers.CORS()(r)),
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP API server listening at :%d", *httpAPIPort))

		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_SERVING)
	level.Info(logger).Log("msg", "serving status to SERVING")

	select {
	case <-interrupt:
		cancel()

		break
	case <-ctx.Done():
		break
	}

	level.Warn(logger).Log("msg", "received shutdown signal")

	healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpMetricsServer != nil {
		_ = httpMetricsServer.Shutdown(shutdownCtx)
	}

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if grpcHealthServer != nil {
		grpcHealthServer.GracefulStop()
	}

	err = g.Wait()
	if err != nil {
		level.Error(logger).Log("msg", "server returning an error", "error", err)

		exitcode = 1

		return
	}
}
