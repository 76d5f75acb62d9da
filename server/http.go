package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/akhenakh/geojsonvt"
)

// TileHandler HTTP 1.1 Handler returning the tile z/x/y as GeoJSON
func (s *Server) TileHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	span, ctx := opentracing.StartSpanFromContext(ctx, "TileHandler")
	defer span.Finish()

	vars := mux.Vars(r)

	z, err := strconv.ParseUint(vars["z"], 10, 8)
	if err != nil {
		http.Error(w, "invalid parameter z", 400)
		return
	}
	x, err := strconv.Atoi(vars["x"])
	if err != nil {
		http.Error(w, "invalid parameter x", 400)
		return
	}
	y, err := strconv.Atoi(vars["y"])
	if err != nil {
		http.Error(w, "invalid parameter y", 400)
		return
	}

	et, err := s.tile(ctx, uint8(z), x, y)
	if err != nil {
		if errors.Is(err, geojsonvt.ErrInvalidZoom) {
			http.Error(w, "invalid parameter z", 400)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	if et == nil {
		http.Error(w, "{\"msg\": \"no features in this tile\"}", 404)
		return
	}

	w.Header().Set("ETag", et.etag)
	if r.Header.Get("If-None-Match") == et.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(et.body)
}

// InfosHandler HTTP 1.1 Handler returning the index description
func (s *Server) InfosHandler(w http.ResponseWriter, r *http.Request) {
	is, ok := s.src.(Infoser)
	if !ok {
		http.Error(w, "{\"msg\": \"no infos for this index\"}", 404)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(is.Infos()); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
}

// HealthzHandler HTTP 1.1 Handler reporting the gRPC health status
func (s *Server) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.healthServer == nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("{\"status\": \"%s\"}", healthpb.HealthCheckResponse_UNKNOWN.String())))
		return
	}

	resp, err := s.healthServer.Check(r.Context(), &healthpb.HealthCheckRequest{
		Service: fmt.Sprintf("grpc.health.v1.%s", s.appName)},
	)
	if err != nil {
		b := []byte(fmt.Sprintf("{\"status\": \"%s\"}", healthpb.HealthCheckResponse_UNKNOWN.String()))
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(b)
		return
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		w.WriteHeader(http.StatusInternalServerError)
	}
	b := []byte(fmt.Sprintf("{\"status\": \"%s\"}", resp.Status.String()))
	w.Write(b)
}

// Router returns the API routes, wrap registers handlers with extra middlewares
func (s *Server) Router(wrap func(path string, h http.Handler) http.Handler) *mux.Router {
	if wrap == nil {
		wrap = func(_ string, h http.Handler) http.Handler { return h }
	}

	r := mux.NewRouter()

	r.Handle("/api/tiles/{z}/{x}/{y}", wrap("/api/tiles/z/x/y", http.HandlerFunc(s.TileHandler)))
	r.Handle("/api/infos", wrap("/api/infos", http.HandlerFunc(s.InfosHandler)))
	r.HandleFunc("/healthz", s.HealthzHandler)

	return r
}
