package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/okian/marathon/internal/adapters/fitfile"
)

// activityField is the multipart field carrying FIT files.
const activityField = "activity"

type formValues struct {
	KmPerWeek    int     `json:"km4week"`
	SpeedPerWeek float64 `json:"sp4week"`
}

type trainingResponse struct {
	Summary fitfile.Summary `json:"summary"`
	Form    formValues      `json:"form"`
}

// TrainingHandler derives the weekly training fields from FIT uploads.
type TrainingHandler struct {
	deps           TrainingDependencies
	maxUploadBytes int64
}

// NewTrainingHandler creates a new training summary handler.
func NewTrainingHandler(deps TrainingDependencies, maxUploadBytes int64) *TrainingHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &TrainingHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleSummary handles POST /api/v1/training-summary requests.
func (h *TrainingHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.training_summary"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", NewKind(op, ErrPayloadTooLarge))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[activityField]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	files, err := openAll(headers)
	defer closeAll(files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	readers := make([]io.Reader, len(files))
	for i, f := range files {
		readers[i] = f
	}
	sum, err := h.deps.SummarizeTraining(r.Context(), readers...)
	if err != nil {
		switch {
		case errors.Is(err, fitfile.ErrNoRuns):
			writeError(w, http.StatusUnprocessableEntity, "no_runs", WrapKind(op, ErrBadRequest, err))
		case errors.Is(err, fitfile.ErrDecode), errors.Is(err, fitfile.ErrNotActivity), errors.Is(err, fitfile.ErrNoSessions):
			writeError(w, http.StatusBadRequest, "invalid_activity", WrapKind(op, ErrBadRequest, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	km, speed := sum.FormValues()
	writeJSON(w, http.StatusOK, trainingResponse{
		Summary: sum,
		Form:    formValues{KmPerWeek: km, SpeedPerWeek: speed},
	})
}

func openAll(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
