// Package site serves the registration form and the about page.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/logger"
)

const maxFormBytes = 16 << 10

// Predictor is what the form needs from the service.
type Predictor interface {
	Predict(ctx context.Context, source string, in model.RawInput) (model.Prediction, error)
}

var pages = map[string]*template.Template{
	"home":  template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/home.html")),
	"about": template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/about.html")),
}

// Register attaches the form, the about page and the stylesheets to mux.
func Register(_ context.Context, mux *http.ServeMux, deps Predictor) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewRootHandler(deps)
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc("/about", h.HandleAbout)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// RootHandler handles the HTML pages.
type RootHandler struct {
	deps   Predictor
	logger logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps Predictor) *RootHandler {
	return &RootHandler{deps: deps, logger: logger.Get().Named("site")}
}

// HandleRoot renders the form on GET / and scores it on POST /.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	p := newPrinter(locale(r))
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.render(w, r, http.StatusOK, "home", homeView(p, defaultForm(), "", nil))
	case http.MethodPost:
		h.submit(w, r, p)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// HandleAbout renders GET /about.
func (h *RootHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	p := newPrinter(locale(r))
	h.render(w, r, http.StatusOK, "about", pageView{Title: "About Us", Page: "about", Lang: p.lang()})
}

func (h *RootHandler) submit(w http.ResponseWriter, r *http.Request, p printer) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "home", homeView(p, defaultForm(), "The form could not be read.", nil))
		return
	}

	form := formFromRequest(r)
	in, err := form.input()
	if err != nil {
		h.render(w, r, http.StatusBadRequest, "home", homeView(p, form, userMessage(err), nil))
		return
	}

	pred, err := h.deps.Predict(r.Context(), inference.SourceForm, in)
	if err != nil {
		if inference.StageOf(err) == inference.StageAssemble {
			h.render(w, r, http.StatusBadRequest, "home", homeView(p, form, userMessage(err), nil))
			return
		}
		h.logger.Error(r.Context(), "prediction failed", logger.Error(err))
		h.render(w, r, http.StatusInternalServerError, "home",
			homeView(p, form, "Sorry, the prediction could not be computed. Please try again later.", nil))
		return
	}

	h.render(w, r, http.StatusOK, "home", homeView(p, form, "", &pred))
}

func (h *RootHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, v any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", v); err != nil {
		h.logger.Error(r.Context(), "render failed", logger.String("page", page), logger.Error(fmt.Errorf("%w: %w", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formValues holds the submitted strings so the form can be re-rendered as
// the runner typed it.
type formValues struct {
	Name          string
	KmPerWeek     string
	SpeedPerWeek  string
	Wall21        string
	CrossTraining string
	Sex           string
	AgeUnder40    string
}

func defaultForm() formValues {
	d := model.DefaultInput()
	return formValues{
		KmPerWeek:     strconv.Itoa(d.KmPerWeek),
		SpeedPerWeek:  strconv.FormatFloat(d.SpeedPerWeek, 'f', 2, 64),
		Wall21:        strconv.FormatFloat(d.Wall21, 'f', 2, 64),
		CrossTraining: d.CrossTraining.Label(),
		Sex:           d.Sex.Label(),
		AgeUnder40:    d.AgeUnder40.Label(),
	}
}

func formFromRequest(r *http.Request) formValues {
	get := func(k string) string { return strings.TrimSpace(r.PostForm.Get(k)) }
	return formValues{
		Name:          get("name"),
		KmPerWeek:     get("km4week"),
		SpeedPerWeek:  get("sp4week"),
		Wall21:        get("wall21"),
		CrossTraining: get("cross_training"),
		Sex:           get("sex"),
		AgeUnder40:    get("age_under_40"),
	}
}

// input parses the submitted strings. Range checks are left to the pipeline.
func (f formValues) input() (model.RawInput, error) {
	km, err := parseInt("KPW", f.KmPerWeek)
	if err != nil {
		return model.RawInput{}, err
	}
	speed, err := parseFloat("Speed", f.SpeedPerWeek)
	if err != nil {
		return model.RawInput{}, err
	}
	wall, err := parseFloat("Wall", f.Wall21)
	if err != nil {
		return model.RawInput{}, err
	}
	set, err := category.ParseSet(f.CrossTraining, f.Sex, f.AgeUnder40)
	if err != nil {
		return model.RawInput{}, err
	}
	return model.RawInput{
		Name:          f.Name,
		KmPerWeek:     km,
		SpeedPerWeek:  speed,
		Wall21:        wall,
		CrossTraining: set.CrossTraining,
		Sex:           set.Sex,
		AgeUnder40:    set.AgeUnder40,
	}, nil
}

func parseInt(field, s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, ErrInvalidNumber)
	}
	return v, nil
}

func parseFloat(field, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, ErrInvalidNumber)
	}
	return v, nil
}

// userMessage turns a validation failure into text for the form.
func userMessage(err error) string {
	var le *category.LabelError
	switch {
	case errors.As(err, &le):
		return fmt.Sprintf("Please choose one of the listed options for %s (got %q).", le.Field, le.Label)
	case errors.Is(err, model.ErrOutOfRange):
		return "A value is outside the allowed range: " + strings.TrimPrefix(err.Error(), inference.StageAssemble+": ")
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidNumber):
		return "Please enter a number: " + err.Error()
	case errors.Is(err, category.ErrUnset):
		return "Please complete every field."
	}
	return "The submission is not valid."
}
