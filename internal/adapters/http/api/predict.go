package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
)

const maxPredictBodyBytes = 64 << 10

// predictRequest mirrors the OpenAPI schema for POST /api/v1/predict.
// Fields left out of the body keep the form defaults.
type predictRequest struct {
	Name          string                 `json:"name"`
	KmPerWeek     int                    `json:"km4week"`
	SpeedPerWeek  float64                `json:"sp4week"`
	Wall21        float64                `json:"wall21"`
	CrossTraining category.CrossTraining `json:"cross_training"`
	Sex           category.Sex           `json:"sex"`
	AgeUnder40    category.AgeBracket    `json:"age_under_40"`
}

func newPredictRequest() predictRequest {
	d := model.DefaultInput()
	return predictRequest{
		KmPerWeek:     d.KmPerWeek,
		SpeedPerWeek:  d.SpeedPerWeek,
		Wall21:        d.Wall21,
		CrossTraining: d.CrossTraining,
		Sex:           d.Sex,
		AgeUnder40:    d.AgeUnder40,
	}
}

func (p predictRequest) input() model.RawInput {
	return model.RawInput{
		Name:          p.Name,
		KmPerWeek:     p.KmPerWeek,
		SpeedPerWeek:  p.SpeedPerWeek,
		Wall21:        p.Wall21,
		CrossTraining: p.CrossTraining,
		Sex:           p.Sex,
		AgeUnder40:    p.AgeUnder40,
	}
}

type predictionResponse struct {
	ID                 string                      `json:"id"`
	Name               string                      `json:"name"`
	PredictedHours     float64                     `json:"predicted_hours"`
	PredictedHoursText string                      `json:"predicted_hours_text"`
	Clock              string                      `json:"clock"`
	Features           model.FeatureVector         `json:"features"`
	FeatureVector      [model.FeatureCount]float64 `json:"feature_vector"`
	FeatureNames       [model.FeatureCount]string  `json:"feature_names"`
}

func newPredictionResponse(p model.Prediction) predictionResponse { //nolint:gocritic // hugeParam: Prediction is a value type
	return predictionResponse{
		ID:                 p.ID,
		Name:               p.Input.Name,
		PredictedHours:     p.Hours,
		PredictedHoursText: p.FormatHours(),
		Clock:              p.Clock(),
		Features:           p.Features,
		FeatureVector:      p.Features.Values(),
		FeatureNames:       model.FieldNames,
	}
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /api/v1/predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	req := newPredictRequest()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			code = "bad_request"
		}
		writeError(w, http.StatusBadRequest, code, WrapKind(op, ErrBadRequest, err))
		return
	}

	pred, err := h.deps.Predict(r.Context(), inference.SourceAPI, req.input())
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			writeError(w, status, code, NewKind(op, ErrInternal))
			return
		}
		writeError(w, status, code, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, newPredictionResponse(pred))
}

// classify maps a decode or pipeline error to a status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, category.ErrUnknownLabel):
		return http.StatusBadRequest, "unknown_label"
	case errors.Is(err, model.ErrOutOfRange):
		return http.StatusBadRequest, "out_of_range"
	case errors.Is(err, category.ErrUnset):
		return http.StatusBadRequest, "bad_request"
	case inference.StageOf(err) == inference.StagePredict:
		return http.StatusInternalServerError, "internal_error"
	case inference.StageOf(err) == inference.StageAssemble:
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}
