// Package httpapi exposes the funnel over HTTP: evaluation, signal lookup,
// labeling and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/verdictfx/verdict/internal/application/pipeline"
	"github.com/verdictfx/verdict/internal/domain"
	"github.com/verdictfx/verdict/internal/infrastructure/feedback"
	"github.com/verdictfx/verdict/internal/infrastructure/registry"
)

// Server wires the evaluation engine, signal registry and feedback recorder
// behind a mux router.
type Server struct {
	engine   *pipeline.Engine
	registry registry.Registry
	recorder *feedback.Recorder
	router   *mux.Router
	log      zerolog.Logger
}

func NewServer(engine *pipeline.Engine, reg registry.Registry, rec *feedback.Recorder, prom *prometheus.Registry, log zerolog.Logger) *Server {
	s := &Server{
		engine:   engine,
		registry: reg,
		recorder: rec,
		router:   mux.NewRouter(),
		log:      log.With().Str("component", "httpapi").Logger(),
	}

	s.router.HandleFunc("/api/v1/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/signals/{id}", s.handleGetSignal).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/signals/{id}/label", s.handleLabel).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if prom != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(prom, promhttp.HandlerOpts{}))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// EvaluateRequest is the JSON body of POST /api/v1/evaluate.
type EvaluateRequest struct {
	Candidate  pipeline.Candidate         `json:"candidate"`
	Features   *domain.FeatureVector      `json:"features,omitempty"`
	Indicators *domain.IndicatorSnapshot  `json:"indicators,omitempty"`
	Candles    []domain.Candle            `json:"candles,omitempty"`
	Market     domain.MarketSnapshot      `json:"market"`
	Calendar   *domain.CalendarSnapshot   `json:"calendar,omitempty"`
	Regime     domain.MarketRegimeContext `json:"regime"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.engine.Evaluate(r.Context(), pipeline.Request{
		Candidate:  req.Candidate,
		Features:   req.Features,
		Indicators: req.Indicators,
		Candles:    req.Candles,
		Market:     req.Market,
		Calendar:   req.Calendar,
		Regime:     req.Regime,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFeatures) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error().Err(err).Str("instrument", req.Candidate.Instrument).Msg("evaluation failed")
		s.writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.registry.Put(ctx, res); err != nil {
		s.log.Error().Err(err).Str("signal_id", res.SignalID).Msg("registry store failed")
	}
	if res.Admitted {
		if err := s.recorder.RecordEmitted(ctx, res, req.Regime.Regime); err != nil {
			s.log.Error().Err(err).Str("signal_id", res.SignalID).Msg("feedback record failed")
		}
	}

	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := s.registry.Get(r.Context(), id)
	if errors.Is(err, domain.ErrUnknownSignal) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// LabelRequest is the JSON body of POST /api/v1/signals/{id}/label.
type LabelRequest struct {
	Decision string `json:"decision"`
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Decision != "accept" && req.Decision != "skip" {
		s.writeError(w, http.StatusBadRequest, `decision must be "accept" or "skip"`)
		return
	}

	err := s.recorder.RecordDecision(r.Context(), id, req.Decision == "accept")
	switch {
	case errors.Is(err, feedback.ErrAlreadyLabeled):
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_labeled"})
	case errors.Is(err, domain.ErrUnknownSignal):
		s.writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.log.Error().Err(err).Str("signal_id", id).Msg("label failed")
		s.writeError(w, http.StatusInternalServerError, "label failed")
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "labeled"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
