package api

import (
	"net/http"

	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/model"
)

type labelOption struct {
	Label   string `json:"label"`
	Code    int    `json:"code"`
	Default bool   `json:"default,omitempty"`
}

type numericField struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

type labelsResponse struct {
	FeatureNames  [model.FeatureCount]string `json:"feature_names"`
	CrossTraining []labelOption              `json:"cross_training"`
	Sex           []labelOption              `json:"sex"`
	AgeUnder40    []labelOption              `json:"age_under_40"`
	Numeric       map[string]numericField    `json:"numeric"`
}

// LabelsHandler describes the accepted inputs.
type LabelsHandler struct {
	body labelsResponse
}

// NewLabelsHandler creates a new labels handler.
func NewLabelsHandler() *LabelsHandler {
	return &LabelsHandler{body: buildLabels()}
}

// HandleLabels handles GET /api/v1/labels requests.
func (h *LabelsHandler) HandleLabels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.body)
}

func buildLabels() labelsResponse {
	d := model.DefaultInput()

	resp := labelsResponse{
		FeatureNames: model.FieldNames,
		Numeric: map[string]numericField{
			"km4week": {Min: model.MinKmPerWeek, Max: model.MaxKmPerWeek, Default: float64(d.KmPerWeek), Step: 1},
			"sp4week": {Min: model.MinSpeedPerWeek, Max: model.MaxSpeedPerWeek, Default: d.SpeedPerWeek, Step: 0.01},
			"wall21":  {Min: model.MinWall21, Max: model.MaxWall21, Default: d.Wall21, Step: 0.01},
		},
	}
	for _, c := range category.CrossTrainingOptions() {
		resp.CrossTraining = append(resp.CrossTraining, labelOption{Label: c.Label(), Code: c.Code(), Default: c == d.CrossTraining})
	}
	for _, s := range category.SexOptions() {
		resp.Sex = append(resp.Sex, labelOption{Label: s.Label(), Code: s.Code(), Default: s == d.Sex})
	}
	for _, a := range category.AgeBracketOptions() {
		resp.AgeUnder40 = append(resp.AgeUnder40, labelOption{Label: a.Label(), Code: a.Code(), Default: a == d.AgeUnder40})
	}
	return resp
}
