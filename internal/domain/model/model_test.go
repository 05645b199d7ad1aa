package model_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func exampleInput() model.RawInput {
	return model.RawInput{
		Name:          "Alex",
		KmPerWeek:     18,
		SpeedPerWeek:  18.0,
		Wall21:        1.0,
		CrossTraining: category.NoCrossTraining,
		Sex:           category.Male,
		AgeUnder40:    category.Under40,
	}
}

func TestAssemble(t *testing.T) {
	convey.Convey("Given the example submission", t, func() {
		in := exampleInput()

		convey.Convey("When assembling the feature vector", func() {
			fv, err := model.Assemble(in)

			convey.Convey("Then it should be [18, 18.0, 5, 1.0, 1, 1] in schema order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fv.Values(), convey.ShouldResemble, [model.FeatureCount]float64{18, 18.0, 5, 1.0, 1, 1})
			})

			convey.Convey("And two assemblies should be byte-identical", func() {
				again, err := model.Assemble(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(bytes.Equal(fv.Bytes(), again.Bytes()), convey.ShouldBeTrue)
				convey.So(fv.Key(), convey.ShouldEqual, again.Key())
			})
		})

		convey.Convey("When a single field changes", func() {
			other := in
			other.Sex = category.Female
			a, _ := model.Assemble(in)
			b, _ := model.Assemble(other)

			convey.Convey("Then the keys should differ", func() {
				convey.So(a.Key(), convey.ShouldNotEqual, b.Key())
				convey.So(b.Gender, convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given numeric inputs at their bounds", t, func() {
		cases := []struct {
			km    int
			speed float64
			wall  float64
		}{
			{0, 0.0, 0.0},
			{200, 200.0, 3.0},
			{0, 200.0, 3.0},
			{200, 0.0, 0.0},
		}

		convey.Convey("Then they are accepted and passed through unmodified", func() {
			for _, c := range cases {
				in := exampleInput()
				in.KmPerWeek, in.SpeedPerWeek, in.Wall21 = c.km, c.speed, c.wall
				fv, err := model.Assemble(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(fv.KmPerWeek, convey.ShouldEqual, float64(c.km))
				convey.So(fv.SpeedPerWeek, convey.ShouldEqual, c.speed)
				convey.So(fv.Wall21, convey.ShouldEqual, c.wall)
			}
		})
	})

	convey.Convey("Given numeric inputs outside their bounds", t, func() {
		mutations := []func(*model.RawInput){
			func(in *model.RawInput) { in.KmPerWeek = -1 },
			func(in *model.RawInput) { in.KmPerWeek = 201 },
			func(in *model.RawInput) { in.SpeedPerWeek = -0.01 },
			func(in *model.RawInput) { in.SpeedPerWeek = 200.01 },
			func(in *model.RawInput) { in.Wall21 = 3.01 },
			func(in *model.RawInput) { in.Wall21 = math.NaN() },
			func(in *model.RawInput) { in.SpeedPerWeek = math.Inf(1) },
		}

		convey.Convey("Then assembly fails with ErrOutOfRange", func() {
			for _, mutate := range mutations {
				in := exampleInput()
				mutate(&in)
				_, err := model.Assemble(in)
				convey.So(errors.Is(err, model.ErrOutOfRange), convey.ShouldBeTrue)
			}
		})
	})

	convey.Convey("Given an input with an unset category", t, func() {
		in := exampleInput()
		in.AgeUnder40 = 0

		convey.Convey("Then assembly fails", func() {
			_, err := model.Assemble(in)
			convey.So(errors.Is(err, category.ErrUnset), convey.ShouldBeTrue)
		})
	})
}

func TestFieldNames(t *testing.T) {
	convey.Convey("Given the trained column order", t, func() {
		convey.Convey("Then it should match the training data columns", func() {
			convey.So(model.FieldNames, convey.ShouldResemble, [model.FeatureCount]string{
				"km4week", "sp4week", "CrossTraining", "Wall21", "Gender", "Age_Under_40",
			})
		})
	})
}

func TestDefaultInput(t *testing.T) {
	convey.Convey("Given the form defaults", t, func() {
		in := model.DefaultInput()

		convey.Convey("Then they should be valid", func() {
			convey.So(in.Validate(), convey.ShouldBeNil)
			convey.So(in.KmPerWeek, convey.ShouldEqual, 18)
			convey.So(in.CrossTraining, convey.ShouldEqual, category.NoCrossTraining)
		})
	})
}

func TestPredictionFormatting(t *testing.T) {
	convey.Convey("Given a prediction", t, func() {
		p := model.Prediction{Hours: 3.378}

		convey.Convey("Then hours are rendered with two decimals", func() {
			convey.So(p.FormatHours(), convey.ShouldEqual, "3.38")
		})

		convey.Convey("And the clock form rounds to the second", func() {
			convey.So(p.Clock(), convey.ShouldEqual, "3:22:41")
		})

		convey.Convey("And a negative prediction clamps the clock at zero", func() {
			convey.So(model.Prediction{Hours: -1}.Clock(), convey.ShouldEqual, "0:00:00")
		})
	})
}
