// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"

	"github.com/okian/marathon/internal/domain/category"
)

// Bounds enforced on the numeric inputs. They match the ranges the form widgets allow.
const (
	MinKmPerWeek    = 0
	MaxKmPerWeek    = 200
	MinSpeedPerWeek = 0.0
	MaxSpeedPerWeek = 200.0
	MinWall21       = 0.0
	MaxWall21       = 3.0
)

// Defaults pre-filled in the form.
const (
	DefaultKmPerWeek    = 18
	DefaultSpeedPerWeek = 18.0
	DefaultWall21       = 1.0
)

// RawInput is one runner's submission.
type RawInput struct {
	Name          string                 // free text, not used by the model
	KmPerWeek     int                    // average weekly distance over the last four weeks
	SpeedPerWeek  float64                // average training speed over the last four weeks
	Wall21        float64                // "wall" fatigue factor
	CrossTraining category.CrossTraining // weekly cross-training level
	Sex           category.Sex
	AgeUnder40    category.AgeBracket
}

// DefaultInput returns the values the form starts with.
func DefaultInput() RawInput {
	return RawInput{
		KmPerWeek:     DefaultKmPerWeek,
		SpeedPerWeek:  DefaultSpeedPerWeek,
		Wall21:        DefaultWall21,
		CrossTraining: category.NoCrossTraining,
		Sex:           category.Male,
		AgeUnder40:    category.Under40,
	}
}

// Categories returns the categorical part of the input.
func (in RawInput) Categories() category.Set {
	return category.Set{
		CrossTraining: in.CrossTraining,
		Sex:           in.Sex,
		AgeUnder40:    in.AgeUnder40,
	}
}

// Validate checks the numeric bounds (inclusive) and that every category is set.
func (in RawInput) Validate() error {
	if in.KmPerWeek < MinKmPerWeek || in.KmPerWeek > MaxKmPerWeek {
		return rangeError("km4week", float64(in.KmPerWeek), MinKmPerWeek, MaxKmPerWeek)
	}
	if !inRange(in.SpeedPerWeek, MinSpeedPerWeek, MaxSpeedPerWeek) {
		return rangeError("sp4week", in.SpeedPerWeek, MinSpeedPerWeek, MaxSpeedPerWeek)
	}
	if !inRange(in.Wall21, MinWall21, MaxWall21) {
		return rangeError("wall21", in.Wall21, MinWall21, MaxWall21)
	}
	return in.Categories().Validate()
}

// inRange is false for NaN.
func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func rangeError(field string, v, lo, hi float64) error {
	return fmt.Errorf("%s=%g not in [%g, %g]: %w", field, v, lo, hi, ErrOutOfRange)
}
