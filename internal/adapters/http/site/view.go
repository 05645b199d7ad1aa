package site

import (
	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/model"
)

type pageView struct {
	Title string
	Page  string
	Lang  string
}

type option struct {
	Label    string
	Selected bool
}

type formView struct {
	Name          string
	KmPerWeek     string
	SpeedPerWeek  string
	Wall21        string
	CrossTraining []option
	Sex           []option
	AgeUnder40    []option
}

type boundsView struct {
	MinKm, MaxKm       int
	MinSpeed, MaxSpeed float64
	MinWall, MaxWall   float64
}

type resultView struct {
	Name      string
	Wall      string
	Speed     string
	KmPerWeek string
	Sex       string
	Hours     string
	Clock     string
}

type homePage struct {
	pageView
	Form   formView
	Bounds boundsView
	Error  string
	Result *resultView
}

var bounds = boundsView{
	MinKm:    model.MinKmPerWeek,
	MaxKm:    model.MaxKmPerWeek,
	MinSpeed: model.MinSpeedPerWeek,
	MaxSpeed: model.MaxSpeedPerWeek,
	MinWall:  model.MinWall21,
	MaxWall:  model.MaxWall21,
}

func homeView(p printer, f formValues, errMsg string, pred *model.Prediction) homePage {
	v := homePage{
		pageView: pageView{Title: "Marathon Reader", Page: "home", Lang: p.lang()},
		Form: formView{
			Name:          f.Name,
			KmPerWeek:     f.KmPerWeek,
			SpeedPerWeek:  f.SpeedPerWeek,
			Wall21:        f.Wall21,
			CrossTraining: options(labels(category.CrossTrainingOptions()), f.CrossTraining),
			Sex:           options(labels(category.SexOptions()), f.Sex),
			AgeUnder40:    options(labels(category.AgeBracketOptions()), f.AgeUnder40),
		},
		Bounds: bounds,
		Error:  errMsg,
	}
	if pred != nil {
		in := pred.Input
		v.Result = &resultView{
			Name:      in.Name,
			Wall:      p.decimal(in.Wall21),
			Speed:     p.decimal(in.SpeedPerWeek),
			KmPerWeek: p.integer(in.KmPerWeek),
			Sex:       in.Sex.Label(),
			Hours:     p.decimal(pred.Hours),
			Clock:     pred.Clock(),
		}
	}
	return v
}

func labels[T interface{ Label() string }](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Label()
	}
	return out
}

// options marks selected as chosen, falling back to the first entry.
func options(all []string, selected string) []option {
	out := make([]option, len(all))
	found := false
	for i, l := range all {
		out[i] = option{Label: l, Selected: l == selected}
		found = found || out[i].Selected
	}
	if !found && len(out) > 0 {
		out[0].Selected = true
	}
	return out
}
