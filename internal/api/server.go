package api

import (
	"encoding/json"
	"net/http"
	"time"

	"collision-sim/internal/analysis"
	"collision-sim/internal/db"
	"collision-sim/internal/physics"
	"collision-sim/internal/simulator"
	"collision-sim/internal/vehicle"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "api")

// Options carries the tables and physics settings shared by all requests
type Options struct {
	Registry    *vehicle.Registry
	Environment physics.Environment
	Friction    physics.FrictionTable
	RoadLoad    physics.RoadLoad
	Detector    analysis.Detector
}

// DefaultOptions returns the built-in vehicles and standard physics
func DefaultOptions() Options {
	env := physics.StandardEnvironment()
	return Options{
		Registry:    vehicle.Default(),
		Environment: env,
		Friction:    physics.StandardFriction(),
		RoadLoad:    physics.NewRoadLoad(env),
		Detector:    analysis.NewDetector(),
	}
}

// Server represents the API server
type Server struct {
	db     *db.Database
	opts   Options
	router *mux.Router
}

// NewServer creates a new API server
func NewServer(database *db.Database, opts Options) *Server {
	s := &Server{
		db:     database,
		opts:   opts,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Vehicle and surface tables
	s.router.HandleFunc("/api/v1/vehicles", s.handleListVehicles).Methods("GET")
	s.router.HandleFunc("/api/v1/vehicles/{id}", s.handleGetVehicle).Methods("GET")
	s.router.HandleFunc("/api/v1/surfaces", s.handleListSurfaces).Methods("GET")

	// Simulation endpoints
	s.router.HandleFunc("/api/v1/simulate", s.handleSimulate).Methods("POST")
	s.router.HandleFunc("/api/v1/compare", s.handleCompare).Methods("POST")

	// Telemetry endpoints
	s.router.HandleFunc("/api/v1/telemetry", s.handleQueryTelemetry).Methods("GET")
	s.router.HandleFunc("/api/v1/telemetry", s.handleCreateTelemetry).Methods("POST")
	s.router.HandleFunc("/api/v1/telemetry/batch", s.handleBatchTelemetry).Methods("POST")
	s.router.HandleFunc("/api/v1/telemetry/vehicles", s.handleTelemetryVehicles).Methods("GET")
	s.router.HandleFunc("/api/v1/telemetry/braking-events", s.handleBrakingEvents).Methods("GET")
	s.router.HandleFunc("/api/v1/telemetry/scenario", s.handleScenario).Methods("GET")
	s.router.HandleFunc("/api/v1/telemetry/summary/{vehicle_id}", s.handleTelemetrySummary).Methods("GET")

	s.router.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")

	s.router.Use(loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// newSimulator binds a simulator to vehicleID with the server's physics settings
func (s *Server) newSimulator(vehicleID string) (*simulator.Simulator, error) {
	if vehicleID == "" {
		vehicleID = vehicle.DefaultID
	}
	return simulator.New(s.opts.Registry, vehicleID,
		simulator.WithEnvironment(s.opts.Environment),
		simulator.WithFriction(s.opts.Friction),
		simulator.WithRoadLoad(s.opts.RoadLoad),
	)
}

// statusRecorder captures the response status for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start),
		}).Info("request")
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	Total   int   `json:"total,omitempty"`
	Limit   int   `json:"limit,omitempty"`
	Offset  int   `json:"offset,omitempty"`
	QueryMs int64 `json:"query_ms,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

func respondWithMeta(w http.ResponseWriter, data interface{}, m *meta) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Meta: m})
}
