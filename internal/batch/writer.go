package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/okian/marathon/internal/domain/model"
)

const parquetParallelism = 4

// OutputColumns is the header of the scored file.
var OutputColumns = []string{
	"row", "line", "name", "km4week", "sp4week", "cross_training", "wall21", "sex", "age_under_40",
	"predicted_hours", "clock", "error",
}

type parquetRow struct {
	Row            int64   `parquet:"name=row, type=INT64"`
	Line           int64   `parquet:"name=line, type=INT64"`
	Name           string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	KmPerWeek      string  `parquet:"name=km4week, type=BYTE_ARRAY, convertedtype=UTF8"`
	SpeedPerWeek   string  `parquet:"name=sp4week, type=BYTE_ARRAY, convertedtype=UTF8"`
	CrossTraining  string  `parquet:"name=cross_training, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Wall21         string  `parquet:"name=wall21, type=BYTE_ARRAY, convertedtype=UTF8"`
	Sex            string  `parquet:"name=sex, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AgeUnder40     string  `parquet:"name=age_under_40, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PredictedHours float64 `parquet:"name=predicted_hours, type=DOUBLE"`
	Clock          string  `parquet:"name=clock, type=BYTE_ARRAY, convertedtype=UTF8"`
	Error          string  `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Write encodes outcomes in the given format.
func Write(w io.Writer, format string, outcomes []Outcome) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, outcomes)
	case FormatParquet:
		return WriteParquet(w, outcomes)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteCSV writes outcomes in input order with a header line.
func WriteCSV(w io.Writer, outcomes []Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range outcomes {
		if err := cw.Write(csvRecord(&outcomes[i])); err != nil {
			return fmt.Errorf("write row %d: %w", outcomes[i].Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteParquet writes outcomes as a snappy-compressed Parquet file. Rejected
// rows carry a NaN prediction and their error text.
func WriteParquet(w io.Writer, outcomes []Outcome) error {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), parquetParallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range outcomes {
		if err := pw.Write(toParquet(&outcomes[i])); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write row %d: %w", outcomes[i].Index, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet buffer: %w", err)
	}
	if _, err := w.Write(fw.Bytes()); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

func csvRecord(o *Outcome) []string {
	hours, clock, errText := result(o)
	f := o.Fields
	return []string{
		strconv.Itoa(o.Index), strconv.Itoa(o.Line),
		f.Name, f.KmPerWeek, f.SpeedPerWeek, f.CrossTraining, f.Wall21, f.Sex, f.AgeUnder40,
		hours, clock, errText,
	}
}

func toParquet(o *Outcome) parquetRow {
	_, clock, errText := result(o)
	f := o.Fields
	row := parquetRow{
		Row:           int64(o.Index),
		Line:          int64(o.Line),
		Name:          f.Name,
		KmPerWeek:     f.KmPerWeek,
		SpeedPerWeek:  f.SpeedPerWeek,
		CrossTraining: f.CrossTraining,
		Wall21:        f.Wall21,
		Sex:           f.Sex,
		AgeUnder40:    f.AgeUnder40,
		Clock:         clock,
		Error:         errText,
	}
	row.PredictedHours = o.Hours
	if !o.OK() {
		row.PredictedHours = nan()
	}
	return row
}

// result renders the prediction columns shared by both formats.
func result(o *Outcome) (hours, clock, errText string) {
	if !o.OK() {
		return "", "", o.Err.Error()
	}
	p := model.Prediction{Hours: o.Hours}
	return p.FormatHours(), p.Clock(), ""
}
