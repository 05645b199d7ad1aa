package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
)

type countingPredictor struct {
	calls atomic.Int64
	err   error
}

func (c *countingPredictor) Predict(_ context.Context, fv model.FeatureVector) (float64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 2 + fv.KmPerWeek/100, nil
}

func vector(km float64) model.FeatureVector {
	return model.FeatureVector{KmPerWeek: km, SpeedPerWeek: 18, CrossTraining: 5, Wall21: 1, Gender: 1, AgeUnder40: 1}
}

func TestCachedPredictor(t *testing.T) {
	Convey("Given a cache in front of a predictor", t, func() {
		ctx := context.Background()
		next := &countingPredictor{}
		p, err := New(next, 2)
		So(err, ShouldBeNil)

		Convey("When the same vector is predicted twice", func() {
			a, errA := p.Predict(ctx, vector(18))
			b, errB := p.Predict(ctx, vector(18))

			Convey("Then the model is asked once and both answers match", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldEqual, b)
				So(next.calls.Load(), ShouldEqual, 1)
				So(p.Len(), ShouldEqual, 1)
			})
		})

		Convey("When more vectors than the capacity are seen", func() {
			for _, km := range []float64{10, 20, 30} {
				_, err := p.Predict(ctx, vector(km))
				So(err, ShouldBeNil)
			}

			Convey("Then the oldest entry is evicted", func() {
				So(p.Len(), ShouldEqual, 2)
				_, _ = p.Predict(ctx, vector(10))
				So(next.calls.Load(), ShouldEqual, 4)
			})
		})

		Convey("When the cache is purged", func() {
			_, _ = p.Predict(ctx, vector(18))
			p.Purge()

			Convey("Then it is empty", func() {
				So(p.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the wrapped predictor fails", func() {
			boom := errors.New("boom")
			failing := &countingPredictor{err: boom}
			fp, err := New(failing, 4)
			So(err, ShouldBeNil)
			_, err1 := fp.Predict(ctx, vector(18))
			_, err2 := fp.Predict(ctx, vector(18))

			Convey("Then the error is returned and not cached", func() {
				So(errors.Is(err1, boom), ShouldBeTrue)
				So(errors.Is(err2, boom), ShouldBeTrue)
				So(failing.calls.Load(), ShouldEqual, 2)
				So(fp.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestWrap(t *testing.T) {
	Convey("Given a predictor", t, func() {
		next := &countingPredictor{}

		Convey("When the size is zero", func() {
			p, err := Wrap(next, 0)

			Convey("Then the predictor is returned as is", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, inference.Predictor(next))
			})
		})

		Convey("When the size is positive", func() {
			p, err := Wrap(next, 8)

			Convey("Then a cache is added", func() {
				So(err, ShouldBeNil)
				_, ok := p.(*Predictor)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When New is given a nil predictor", func() {
			_, err := New(nil, 8)
			So(errors.Is(err, ErrNilPredictor), ShouldBeTrue)
		})

		Convey("When New is given a non-positive size", func() {
			_, err := New(next, 0)
			So(errors.Is(err, ErrInvalidSize), ShouldBeTrue)
		})
	})
}
