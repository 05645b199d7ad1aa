package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/logger"
)

func init() {
	_ = logger.Init()
}

const runnersCSV = `name,km4week,sp4week,cross_training,wall21,sex,age_under_40
Ada,18,18.0,No cross-training,1.0,Male,Yes
Bea,60,12.5,Cyclist 3 hours,0.5,Female,No
Cy,18,18.0,Unknown,1.0,Male,Yes
Dee,250,18.0,No cross-training,1.0,Female,Yes
Eve,abc,18.0,No cross-training,1.0,Female,Yes
`

// linear mirrors the bundled artifact's coefficients.
var linear = inference.PredictorFunc(func(_ context.Context, fv model.FeatureVector) (float64, error) {
	coef := [model.FeatureCount]float64{-0.004, -0.09, -0.01, 1.05, -0.08, -0.05}
	y := 4.2
	for i, x := range fv.Values() {
		y += coef[i] * x
	}
	return y, nil
})

func TestReadCSV(t *testing.T) {
	Convey("Given a runners file", t, func() {
		rows, err := ReadCSV(strings.NewReader(runnersCSV))
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 5)

		Convey("Then valid rows are parsed into inputs", func() {
			So(rows[0].Err, ShouldBeNil)
			So(rows[0].Line, ShouldEqual, 2)
			So(rows[0].Input.Name, ShouldEqual, "Ada")
			So(rows[0].Input.CrossTraining, ShouldEqual, category.NoCrossTraining)
			So(rows[1].Input.Sex, ShouldEqual, category.Female)
			So(rows[1].Input.AgeUnder40, ShouldEqual, category.Over40)
		})

		Convey("And unknown labels mark only their row", func() {
			So(errors.Is(rows[2].Err, category.ErrUnknownLabel), ShouldBeTrue)
			So(rows[2].Fields.CrossTraining, ShouldEqual, "Unknown")
		})

		Convey("And out-of-range numbers are left for assembly", func() {
			So(rows[3].Err, ShouldBeNil)
			So(rows[3].Input.KmPerWeek, ShouldEqual, 250)
		})

		Convey("And malformed numbers are rejected", func() {
			So(errors.Is(rows[4].Err, ErrBadNumber), ShouldBeTrue)
		})
	})

	Convey("Given reordered columns", t, func() {
		rows, err := ReadCSV(strings.NewReader("sex,age_under_40,name,wall21,cross_training,sp4week,km4week\nMale,Yes,Ada,1.0,No cross-training,18.0,18\n"))

		Convey("Then columns are matched by name", func() {
			So(err, ShouldBeNil)
			So(rows[0].Err, ShouldBeNil)
			So(rows[0].Input.KmPerWeek, ShouldEqual, 18)
			So(rows[0].Input.Wall21, ShouldEqual, 1.0)
		})
	})

	Convey("Given a header without sex", t, func() {
		_, err := ReadCSV(strings.NewReader("name,km4week,sp4week,cross_training,wall21,age_under_40\n"))

		Convey("Then the whole read fails", func() {
			So(errors.Is(err, ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given a short row", t, func() {
		rows, err := ReadCSV(strings.NewReader("name,km4week,sp4week,cross_training,wall21,sex,age_under_40\nAda,18\n"))

		Convey("Then the row carries a field count error", func() {
			So(err, ShouldBeNil)
			So(errors.Is(rows[0].Err, ErrFieldCount), ShouldBeTrue)
		})
	})

	Convey("Given an empty file", t, func() {
		_, err := ReadCSV(strings.NewReader(""))
		So(errors.Is(err, ErrEmptyInput), ShouldBeTrue)
	})
}

func TestScore(t *testing.T) {
	Convey("Given parsed rows", t, func() {
		rows, err := ReadCSV(strings.NewReader(runnersCSV))
		So(err, ShouldBeNil)

		Convey("When scored by several workers through a tiny queue", func() {
			outcomes, err := Score(context.Background(), rows, linear, 4, 1)
			So(err, ShouldBeNil)

			Convey("Then output order equals input order", func() {
				So(outcomes, ShouldHaveLength, len(rows))
				for i := range outcomes {
					So(outcomes[i].Index, ShouldEqual, i)
				}
			})

			Convey("And the reference runner gets the reference estimate", func() {
				So(outcomes[0].OK(), ShouldBeTrue)
				So(outcomes[0].Hours, ShouldAlmostEqual, 3.378, 1e-9)
				So(outcomes[0].Features.Values(), ShouldResemble, [model.FeatureCount]float64{18, 18.0, 5, 1.0, 1, 1})
			})

			Convey("And invalid rows are reported, not fatal", func() {
				So(outcomes[2].OK(), ShouldBeFalse)
				So(errors.Is(outcomes[3].Err, model.ErrOutOfRange), ShouldBeTrue)
				So(outcomes[4].OK(), ShouldBeFalse)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := Score(ctx, rows, linear, 1, 1)

			Convey("Then scoring stops with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestWrite(t *testing.T) {
	Convey("Given scored outcomes", t, func() {
		rows, _ := ReadCSV(strings.NewReader(runnersCSV))
		outcomes, err := Score(context.Background(), rows, linear, 2, 8)
		So(err, ShouldBeNil)

		Convey("When written as CSV", func() {
			var buf bytes.Buffer
			So(Write(&buf, FormatCSV, outcomes), ShouldBeNil)
			records, err := csv.NewReader(&buf).ReadAll()
			So(err, ShouldBeNil)

			Convey("Then there is a header and one line per input row", func() {
				So(records, ShouldHaveLength, len(rows)+1)
				So(records[0], ShouldResemble, OutputColumns)
			})

			Convey("And predictions carry hours and clock", func() {
				So(records[1][2], ShouldEqual, "Ada")
				So(records[1][9], ShouldEqual, "3.38")
				So(records[1][10], ShouldEqual, "3:22:41")
				So(records[1][11], ShouldBeEmpty)
			})

			Convey("And rejected rows carry the error", func() {
				So(records[3][9], ShouldBeEmpty)
				So(records[3][11], ShouldContainSubstring, "Unknown")
			})
		})

		Convey("When written as Parquet", func() {
			var buf bytes.Buffer
			So(Write(&buf, FormatParquet, outcomes), ShouldBeNil)
			data := buf.Bytes()

			Convey("Then the file is framed by the Parquet magic", func() {
				So(string(data[:4]), ShouldEqual, "PAR1")
				So(string(data[len(data)-4:]), ShouldEqual, "PAR1")
			})

			Convey("And every row reads back", func() {
				pr, err := reader.NewParquetReader(parquetbuffer.NewBufferFileFromBytes(data), new(parquetRow), 1)
				So(err, ShouldBeNil)
				defer pr.ReadStop()
				So(pr.GetNumRows(), ShouldEqual, len(rows))

				got := make([]parquetRow, len(rows))
				So(pr.Read(&got), ShouldBeNil)
				So(got[0].Name, ShouldEqual, "Ada")
				So(got[0].PredictedHours, ShouldAlmostEqual, 3.378, 1e-9)
				So(got[2].Error, ShouldNotBeEmpty)
			})
		})

		Convey("When the format is unknown", func() {
			err := Write(&bytes.Buffer{}, "xlsx", outcomes)
			So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given an input file and the bundled model", t, func() {
		dir := t.TempDir()
		input := filepath.Join(dir, "runners.csv")
		So(os.WriteFile(input, []byte(runnersCSV), 0o600), ShouldBeNil)

		cfg := &Config{
			InputFile:  input,
			OutputFile: filepath.Join(dir, "out", "predictions.parquet"),
			ModelPath:  filepath.Join("..", "..", "models", "marathon_time_predictor.json"),
			Workers:    2,
			CacheSize:  16,
		}

		Convey("When the batch runs", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then statistics count scored and invalid rows", func() {
				So(err, ShouldBeNil)
				So(stats.RowsRead, ShouldEqual, 5)
				So(stats.RowsScored, ShouldEqual, 2)
				So(stats.RowsInvalid, ShouldEqual, 3)
			})

			Convey("And a Parquet file is written from the extension", func() {
				data, err := os.ReadFile(cfg.OutputFile)
				So(err, ShouldBeNil)
				So(string(data[:4]), ShouldEqual, "PAR1")
			})
		})

		Convey("When the cache is disabled", func() {
			cfg.CacheSize = 0
			cfg.OutputFile = filepath.Join(dir, "uncached.csv")
			stats, err := Run(context.Background(), cfg)

			Convey("Then the same rows are scored", func() {
				So(err, ShouldBeNil)
				So(stats.RowsScored, ShouldEqual, 2)
			})
		})

		Convey("When the model is missing", func() {
			cfg.ModelPath = filepath.Join(dir, "absent.json")
			_, err := Run(context.Background(), cfg)

			Convey("Then the run fails before reading rows", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "model load failed")
			})
		})
	})

	Convey("Given an explicit format", t, func() {
		cfg := &Config{OutputFile: "scores.parquet", Format: "CSV"}
		So(cfg.OutputFormat(), ShouldEqual, FormatCSV)
		cfg.Format = ""
		So(cfg.OutputFormat(), ShouldEqual, FormatParquet)
	})
}
