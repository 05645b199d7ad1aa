// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/marathon/internal/adapters/fitfile"
	"github.com/okian/marathon/internal/domain/model"
)

// DefaultMaxUploadBytes bounds training summary uploads when no limit is set.
const DefaultMaxUploadBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	TrainingDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	predictHandler  *PredictHandler
	labelsHandler   *LabelsHandler
	trainingHandler *TrainingHandler
}

// Option configures a Server.
type Option func(*options)

type options struct {
	maxUploadBytes int64
}

// WithMaxUploadBytes caps the size of a training summary upload.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{maxUploadBytes: DefaultMaxUploadBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		predictHandler:  NewPredictHandler(deps),
		labelsHandler:   NewLabelsHandler(),
		trainingHandler: NewTrainingHandler(deps, o.maxUploadBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/api/v1/labels", MetricsMiddleware(s.labelsHandler.HandleLabels, "labels"))
	mux.HandleFunc("/api/v1/training-summary", MetricsMiddleware(s.trainingHandler.HandleSummary, "training_summary"))
}

// PredictDependencies is what the predict endpoint needs.
type PredictDependencies interface {
	Predict(ctx context.Context, source string, in model.RawInput) (model.Prediction, error)
}

// TrainingDependencies is what the training summary endpoint needs.
type TrainingDependencies interface {
	SummarizeTraining(ctx context.Context, files ...io.Reader) (fitfile.Summary, error)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
