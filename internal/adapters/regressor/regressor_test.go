package regressor

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/logger"
)

func init() {
	_ = logger.Init()
}

const linearArtifact = `{
  "format": "marathon-regressor",
  "version": 1,
  "kind": "linear",
  "target": "hours",
  "features": ["km4week", "sp4week", "CrossTraining", "Wall21", "Gender", "Age_Under_40"],
  "linear": {"intercept": 4.2, "coefficients": [-0.004, -0.09, -0.01, 1.05, -0.08, -0.05]}
}`

// Two stumps on km4week and Wall21 plus a constant tree.
const ensembleArtifact = `{
  "format": "marathon-regressor",
  "version": 1,
  "kind": "tree_ensemble",
  "features": ["km4week", "sp4week", "CrossTraining", "Wall21", "Gender", "Age_Under_40"],
  "ensemble": {
    "base_score": 3.0,
    "learning_rate": 0.5,
    "aggregation": "sum",
    "trees": [
      {"nodes": [
        {"feature": 0, "threshold": 40, "left": 1, "right": 2},
        {"leaf": true, "value": 0.6},
        {"leaf": true, "value": -0.4}
      ]},
      {"nodes": [
        {"feature": 3, "threshold": 1.0, "left": 1, "right": 2},
        {"leaf": true, "value": 0.0},
        {"leaf": true, "value": 0.8}
      ]},
      {"nodes": [{"leaf": true, "value": 0.2}]}
    ]
  }
}`

func writeArtifact(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		panic(err)
	}
	return path
}

func gzipped(data string) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(data))
	_ = zw.Close()
	return buf.Bytes()
}

func exampleVector() model.FeatureVector {
	return model.FeatureVector{KmPerWeek: 18, SpeedPerWeek: 18.0, CrossTraining: 5, Wall21: 1.0, Gender: 1, AgeUnder40: 1}
}

func TestLoad(t *testing.T) {
	Convey("Given model artifacts on disk", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		Convey("When a linear artifact is loaded", func() {
			m, err := Load(ctx, writeArtifact(dir, "linear.json", []byte(linearArtifact)))
			So(err, ShouldBeNil)

			Convey("Then the example runner gets a finite estimate", func() {
				hours, err := m.Predict(ctx, exampleVector())
				So(err, ShouldBeNil)
				So(hours, ShouldAlmostEqual, 3.378, 1e-9)
			})

			Convey("And the info describes the artifact", func() {
				info := m.Info()
				So(info.Kind, ShouldEqual, KindLinear)
				So(info.Version, ShouldEqual, ArtifactVersion)
				So(info.Checksum, ShouldHaveLength, 64)
				So(info.LoadedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And identical vectors give identical outputs", func() {
				a, _ := m.Predict(ctx, exampleVector())
				b, _ := m.Predict(ctx, exampleVector())
				So(a, ShouldEqual, b)
			})
		})

		Convey("When a gzip artifact is loaded", func() {
			m, err := Load(ctx, writeArtifact(dir, "linear.json.gz", gzipped(linearArtifact)))

			Convey("Then it behaves like the plain one", func() {
				So(err, ShouldBeNil)
				hours, err := m.Predict(ctx, exampleVector())
				So(err, ShouldBeNil)
				So(hours, ShouldAlmostEqual, 3.378, 1e-9)
			})
		})

		Convey("When a tree ensemble is loaded", func() {
			m, err := Load(ctx, writeArtifact(dir, "trees.json", []byte(ensembleArtifact)))
			So(err, ShouldBeNil)
			So(m.Info().Trees, ShouldEqual, 3)

			Convey("Then thresholds route values at the boundary to the left", func() {
				fv := exampleVector()
				fv.KmPerWeek = 40
				hours, err := m.Predict(ctx, fv)
				So(err, ShouldBeNil)
				So(hours, ShouldAlmostEqual, 3.0+0.5*(0.6+0.0+0.2), 1e-9)
			})

			Convey("And larger values go right", func() {
				fv := exampleVector()
				fv.KmPerWeek = 80
				fv.Wall21 = 2.5
				hours, err := m.Predict(ctx, fv)
				So(err, ShouldBeNil)
				So(hours, ShouldAlmostEqual, 3.0+0.5*(-0.4+0.8+0.2), 1e-9)
			})
		})

		Convey("When the artifact is missing", func() {
			_, err := Load(ctx, filepath.Join(dir, "absent.json"))

			Convey("Then a not-found load error is returned", func() {
				So(errors.Is(err, ErrLoad), ShouldBeTrue)
				So(errors.Is(err, ErrArtifactNotFound), ShouldBeTrue)
			})
		})

		Convey("When the artifact is malformed", func() {
			cases := map[string]string{
				"garbage":        `not json`,
				"format":         `{"format":"onnx","version":1}`,
				"version":        `{"format":"marathon-regressor","version":2}`,
				"kind":           `{"format":"marathon-regressor","version":1,"kind":"svm","features":["km4week","sp4week","CrossTraining","Wall21","Gender","Age_Under_40"]}`,
				"feature order":  `{"format":"marathon-regressor","version":1,"kind":"linear","features":["sp4week","km4week","CrossTraining","Wall21","Gender","Age_Under_40"],"linear":{"coefficients":[0,0,0,0,0,0]}}`,
				"coefficients":   `{"format":"marathon-regressor","version":1,"kind":"linear","features":["km4week","sp4week","CrossTraining","Wall21","Gender","Age_Under_40"],"linear":{"coefficients":[0,0,0]}}`,
				"missing block":  `{"format":"marathon-regressor","version":1,"kind":"tree_ensemble","features":["km4week","sp4week","CrossTraining","Wall21","Gender","Age_Under_40"]}`,
				"backward child": `{"format":"marathon-regressor","version":1,"kind":"tree_ensemble","features":["km4week","sp4week","CrossTraining","Wall21","Gender","Age_Under_40"],"ensemble":{"trees":[{"nodes":[{"feature":0,"threshold":1,"left":0,"right":1},{"leaf":true}]}]}}`,
				"bad feature":    `{"format":"marathon-regressor","version":1,"kind":"tree_ensemble","features":["km4week","sp4week","CrossTraining","Wall21","Gender","Age_Under_40"],"ensemble":{"trees":[{"nodes":[{"feature":6,"threshold":1,"left":1,"right":2},{"leaf":true},{"leaf":true}]}]}}`,
				"target":         `{"format":"marathon-regressor","version":1,"kind":"linear","target":"minutes","features":["km4week","sp4week","CrossTraining","Wall21","Gender","Age_Under_40"],"linear":{"coefficients":[0,0,0,0,0,0]}}`,
			}

			Convey("Then each one is rejected as invalid", func() {
				for _, body := range cases {
					_, err := Load(ctx, writeArtifact(dir, "bad.json", []byte(body)))
					So(errors.Is(err, ErrLoad), ShouldBeTrue)
					So(errors.Is(err, ErrInvalidArtifact), ShouldBeTrue)
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := Load(cctx, writeArtifact(dir, "linear.json", []byte(linearArtifact)))

			Convey("Then loading stops", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestPredictNonFinite(t *testing.T) {
	Convey("Given a linear model", t, func() {
		m, err := Load(context.Background(), writeArtifact(t.TempDir(), "linear.json", []byte(linearArtifact)))
		So(err, ShouldBeNil)

		Convey("When the feature row overflows the sum", func() {
			fv := exampleVector()
			fv.Wall21 = math.MaxFloat64

			Convey("Then ErrNonFinite is returned", func() {
				_, err := m.Predict(context.Background(), fv)
				So(errors.Is(err, ErrNonFinite), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then no prediction is made", func() {
				_, err := m.Predict(ctx, exampleVector())
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestLoaderOnce(t *testing.T) {
	Convey("Given a loader", t, func() {
		dir := t.TempDir()
		path := writeArtifact(dir, "linear.json", []byte(linearArtifact))
		l := NewLoader(path, WithLogger(logger.Get()))
		So(l.Path(), ShouldEqual, path)

		Convey("When Load is called concurrently", func() {
			var wg sync.WaitGroup
			models := make([]*Model, 8)
			for i := range models {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					models[i], _ = l.Load(context.Background())
				}(i)
			}
			wg.Wait()

			Convey("Then every caller gets the same model", func() {
				for _, m := range models {
					So(m, ShouldNotBeNil)
					So(m, ShouldPointTo, models[0])
				}
			})

			Convey("And the artifact is not read again", func() {
				So(os.Remove(path), ShouldBeNil)
				m, err := l.Load(context.Background())
				So(err, ShouldBeNil)
				So(m, ShouldPointTo, models[0])
			})
		})

		Convey("When the first load fails", func() {
			bad := NewLoader(filepath.Join(dir, "missing.json"))
			_, first := bad.Load(context.Background())
			writeArtifact(dir, "missing.json", []byte(linearArtifact))
			_, second := bad.Load(context.Background())

			Convey("Then the failure is sticky", func() {
				So(errors.Is(first, ErrArtifactNotFound), ShouldBeTrue)
				So(second, ShouldEqual, first)
			})
		})
	})
}

func TestBundledArtifact(t *testing.T) {
	Convey("Given the artifact shipped in models/", t, func() {
		m, err := Load(context.Background(), filepath.Join("..", "..", "..", "models", "marathon_time_predictor.json"))

		Convey("Then it loads and predicts the reference runner", func() {
			So(err, ShouldBeNil)
			hours, err := m.Predict(context.Background(), exampleVector())
			So(err, ShouldBeNil)
			So(hours, ShouldAlmostEqual, 3.378, 1e-9)
			So(m.Info().Metadata["estimator"], ShouldEqual, "LinearRegression")
		})
	})
}
