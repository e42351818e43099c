package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"collision-sim/internal/analysis"
	"collision-sim/internal/models"
	"collision-sim/internal/parser"
	"collision-sim/internal/physics"

	"github.com/gorilla/mux"
)

// simulateRequest is the body of POST /api/v1/simulate and /api/v1/compare.
// ReactionTimeSec wins over ReactionPreset; with neither the AVERAGE preset applies.
type simulateRequest struct {
	VehicleID       string   `json:"vehicle_id"`
	SpeedKmh        float64  `json:"speed_kmh"`
	ObstacleM       float64  `json:"obstacle_m"`
	Surface         string   `json:"surface"`
	Surfaces        []string `json:"surfaces,omitempty"` // compare only
	ReactionTimeSec *float64 `json:"reaction_time_sec,omitempty"`
	ReactionPreset  string   `json:"reaction_preset,omitempty"`
}

type simulateResponse struct {
	Result models.SimulationResult `json:"result"`
	Report models.Report           `json:"report"`
}

type surfaceInfo struct {
	Surface    string  `json:"surface"`
	FrictionMu float64 `json:"friction_mu"`
}

func (req simulateRequest) reactionTime() (float64, error) {
	if req.ReactionTimeSec != nil {
		return *req.ReactionTimeSec, nil
	}
	if req.ReactionPreset != "" {
		return physics.ParseReactionTime(req.ReactionPreset)
	}
	t, _ := physics.ReactionTime("AVERAGE")
	return t, nil
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrVehicleNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidVehicleSpec):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.opts.Registry.List())
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	spec, err := s.opts.Registry.Lookup(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	respondJSON(w, http.StatusOK, spec)
}

func (s *Server) handleListSurfaces(w http.ResponseWriter, r *http.Request) {
	var surfaces []surfaceInfo
	for _, label := range s.opts.Friction.Surfaces() {
		mu, _ := s.opts.Friction.Coefficient(label)
		surfaces = append(surfaces, surfaceInfo{Surface: label, FrictionMu: mu})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"surfaces":         surfaces,
		"default_friction": s.opts.Friction.Fallback,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	reaction, err := req.reactionTime()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Surface == "" {
		req.Surface = physics.WetAsphalt
	}

	sim, err := s.newSimulator(req.VehicleID)
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	result, err := sim.Run(req.SpeedKmh, req.ObstacleM, req.Surface, reaction)
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, simulateResponse{Result: result, Report: result.Report()})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	reaction, err := req.reactionTime()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sim, err := s.newSimulator(req.VehicleID)
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	rows, err := sim.CompareSurfaces(req.SpeedKmh, req.ObstacleM, reaction, req.Surfaces...)
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	respondWithMeta(w, rows, &meta{Total: len(rows)})
}

// defaultQueryLimit caps GET /api/v1/telemetry when no limit is given
const defaultQueryLimit = 100

// parseTelemetryQuery reads vehicle_id, start_sec, end_sec, min_speed, limit and offset
func parseTelemetryQuery(v url.Values) (models.TelemetryQuery, error) {
	q := models.TelemetryQuery{
		VehicleID: v.Get("vehicle_id"),
		Limit:     defaultQueryLimit,
	}

	floats := map[string]*float64{"start_sec": &q.StartSec, "end_sec": &q.EndSec, "min_speed": &q.MinSpeed}
	for name, dst := range floats {
		if raw := v.Get(name); raw != "" {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return q, fmt.Errorf("%w: %s must be a number, got %q", models.ErrInvalidInput, name, raw)
			}
			*dst = f
		}
	}
	ints := map[string]*int{"limit": &q.Limit, "offset": &q.Offset}
	for name, dst := range ints {
		if raw := v.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return q, fmt.Errorf("%w: %s must be an integer, got %q", models.ErrInvalidInput, name, raw)
			}
			*dst = n
		}
	}

	return q, q.Validate()
}

func (s *Server) handleQueryTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := parseTelemetryQuery(r.URL.Query())
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	results, err := s.db.QuerySamples(q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithMeta(w, results, &meta{
		Total:   len(results),
		Limit:   q.Limit,
		Offset:  q.Offset,
		QueryMs: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleCreateTelemetry(w http.ResponseWriter, r *http.Request) {
	var sample models.TelemetrySample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if errs := parser.ValidateSample(&sample); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs[0])
		return
	}

	if err := s.db.InsertSample(&sample); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, sample)
}

func (s *Server) handleTelemetryVehicles(w http.ResponseWriter, r *http.Request) {
	ids, err := s.db.ListVehicleIDs()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}

	respondWithMeta(w, ids, &meta{Total: len(ids)})
}

func (s *Server) handleBatchTelemetry(w http.ResponseWriter, r *http.Request) {
	var samples []models.TelemetrySample
	if err := json.NewDecoder(r.Body).Decode(&samples); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON array")
		return
	}

	if len(samples) == 0 {
		respondError(w, http.StatusBadRequest, "empty array")
		return
	}
	for i := range samples {
		if errs := parser.ValidateSample(&samples[i]); len(errs) > 0 {
			respondError(w, http.StatusBadRequest, errs[0])
			return
		}
	}

	count, err := s.db.InsertSamplesBatch(samples)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"inserted": count})
}

func (s *Server) handleBrakingEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	detector := s.opts.Detector
	if v := r.URL.Query().Get("threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil || threshold >= 0 {
			respondError(w, http.StatusBadRequest, "threshold must be a negative number")
			return
		}
		detector.ThresholdMPHPerSec = threshold
	}

	samples, err := s.db.QuerySamples(models.TelemetryQuery{VehicleID: r.URL.Query().Get("vehicle_id")})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events := detector.HardBraking(samples)
	respondWithMeta(w, events, &meta{Total: len(events), QueryMs: time.Since(start).Milliseconds()})
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	samples, err := s.db.QuerySamples(models.TelemetryQuery{VehicleID: q.Get("vehicle_id")})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	scenario, err := analysis.SelectScenario(samples, q.Get("vehicle_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	// Without an obstacle only the picked speed is returned
	if q.Get("obstacle_m") == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"scenario": scenario})
		return
	}

	obstacle, err := strconv.ParseFloat(q.Get("obstacle_m"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid obstacle_m")
		return
	}
	req := simulateRequest{ReactionPreset: q.Get("reaction")}
	reaction, err := req.reactionTime()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	surface := q.Get("surface")
	if surface == "" {
		surface = physics.WetAsphalt
	}

	sim, err := s.newSimulator(q.Get("sim_vehicle"))
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}
	result, err := sim.Run(scenario.SpeedKmh, obstacle, surface, reaction)
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scenario": scenario,
		"result":   result,
		"report":   result.Report(),
	})
}

func (s *Server) handleTelemetrySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vehicleID := mux.Vars(r)["vehicle_id"]

	summary, err := s.db.GetSummary(vehicleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "no data found for vehicle")
		return
	}

	respondWithMeta(w, summary, &meta{QueryMs: time.Since(start).Milliseconds()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats["vehicles_registered"] = len(s.opts.Registry.IDs())
	stats["surfaces"] = len(s.opts.Friction.Surfaces())

	respondJSON(w, http.StatusOK, stats)
}
