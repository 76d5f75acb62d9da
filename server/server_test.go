package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	log "github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/akhenakh/geojsonvt"
	"github.com/akhenakh/geojsonvt/index/memindex"
)

const appName = "vtserved-test"

func TestServer_TileHandler(t *testing.T) {
	s, _ := setup(t, 1<<20)
	router := s.Router(nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"root", "/api/tiles/0/0/0", http.StatusOK},
		{"drill down", "/api/tiles/9/245/189", http.StatusOK},
		{"wrapped", "/api/tiles/5/47/11", http.StatusOK},
		{"empty", "/api/tiles/5/0/0", http.StatusNotFound},
		{"out of world", "/api/tiles/2/0/7", http.StatusNotFound},
		{"zoom too high", "/api/tiles/15/0/0", http.StatusBadRequest},
		{"zoom out of range", "/api/tiles/200/0/0", http.StatusBadRequest},
		{"invalid z", "/api/tiles/a/0/0", http.StatusBadRequest},
		{"invalid x", "/api/tiles/0/a/0", http.StatusBadRequest},
		{"invalid y", "/api/tiles/0/0/a", http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("ETag"))

			fc := &geojson.FeatureCollection{}
			require.NoError(t, fc.UnmarshalJSON(rec.Body.Bytes()))
			assert.Len(t, fc.Features, 2)
		})
	}
}

func TestServer_TileHandler_ETag(t *testing.T) {
	s, _ := setup(t, 0)
	router := s.Router(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tiles/0/0/0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req = httptest.NewRequest(http.MethodGet, "/api/tiles/0/0/0", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/api/tiles/0/0/0", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_InfosHandler(t *testing.T) {
	s, _ := setup(t, 0)
	router := s.Router(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/infos", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos geojsonvt.IndexInfos
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	assert.Equal(t, uint32(2), infos.FeatureCount)
	assert.Equal(t, uint8(14), infos.MaxZoom)

	// a source without infos
	bare, err := New(srcFunc(func(z uint8, x, y int) (*geojsonvt.Tile, error) {
		return geojsonvt.EmptyTile, nil
	}), nil, nil, Options{})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	bare.Router(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/infos", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HealthzHandler(t *testing.T) {
	s, hs := setup(t, 0)
	router := s.Router(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	hs.SetServingStatus("grpc.health.v1."+appName, healthpb.HealthCheckResponse_NOT_SERVING)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_SERVING")

	hs.SetServingStatus("grpc.health.v1."+appName, healthpb.HealthCheckResponse_SERVING)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "SERVING"}`, rec.Body.String())
}

type srcFunc func(z uint8, x, y int) (*geojsonvt.Tile, error)

func (f srcFunc) Tile(z uint8, x, y int) (*geojsonvt.Tile, error) {
	return f(z, x, y)
}

func setup(t *testing.T, cacheSize int64) (*Server, *health.Server) {
	t.Helper()

	logger := log.NewLogfmtLogger(os.Stdout)

	fc, err := geojsonvt.ReadFeatureCollection("../testdata/square.geojson")
	require.NoError(t, err)

	opts := geojsonvt.DefaultOptions()
	opts.MaxZoom = 14
	opts.IndexMaxPoints = 1

	idx, err := memindex.New(fc, opts, logger)
	require.NoError(t, err)

	hs := health.NewServer()

	s, err := New(idx, logger, hs, Options{AppName: appName, CacheSize: cacheSize})
	require.NoError(t, err)

	return s, hs
}
