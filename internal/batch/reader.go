package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/marathon/internal/domain/category"
	"github.com/okian/marathon/internal/domain/model"
)

// Columns is the input header. Column order in the file is free.
var Columns = []string{"name", "km4week", "sp4week", "cross_training", "wall21", "sex", "age_under_40"}

// ReadCSV parses every row of r. A missing column fails the whole read;
// a bad value only marks its row.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row := Row{Index: len(rows)}
		var perr *csv.ParseError
		switch {
		case errors.As(err, &perr):
			row.Line = perr.Line
			row.Err = fmt.Errorf("line %d: %w", perr.Line, err)
		case err != nil:
			return nil, fmt.Errorf("read row %d: %w", row.Index, err)
		case len(record) != len(header):
			row.Line, _ = cr.FieldPos(0)
			row.Err = fmt.Errorf("line %d: %w: got %d, want %d", row.Line, ErrFieldCount, len(record), len(header))
		default:
			row.Line, _ = cr.FieldPos(0)
			row.Fields = pick(record, index)
			row.Input, row.Err = parseFields(row.Fields)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range Columns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return index, nil
}

func pick(record []string, index map[string]int) Fields {
	get := func(col string) string { return strings.TrimSpace(record[index[col]]) }
	return Fields{
		Name:          get("name"),
		KmPerWeek:     get("km4week"),
		SpeedPerWeek:  get("sp4week"),
		CrossTraining: get("cross_training"),
		Wall21:        get("wall21"),
		Sex:           get("sex"),
		AgeUnder40:    get("age_under_40"),
	}
}

// parseFields converts the text of one row. Range checks happen later, when the
// feature vector is assembled.
func parseFields(f Fields) (model.RawInput, error) {
	km, err := strconv.Atoi(f.KmPerWeek)
	if err != nil {
		return model.RawInput{}, fmt.Errorf("km4week %q: %w", f.KmPerWeek, ErrBadNumber)
	}
	sp, err := strconv.ParseFloat(f.SpeedPerWeek, 64)
	if err != nil {
		return model.RawInput{}, fmt.Errorf("sp4week %q: %w", f.SpeedPerWeek, ErrBadNumber)
	}
	wall, err := strconv.ParseFloat(f.Wall21, 64)
	if err != nil {
		return model.RawInput{}, fmt.Errorf("wall21 %q: %w", f.Wall21, ErrBadNumber)
	}
	set, err := category.ParseSet(f.CrossTraining, f.Sex, f.AgeUnder40)
	if err != nil {
		return model.RawInput{}, err
	}
	return model.RawInput{
		Name:          f.Name,
		KmPerWeek:     km,
		SpeedPerWeek:  sp,
		Wall21:        wall,
		CrossTraining: set.CrossTraining,
		Sex:           set.Sex,
		AgeUnder40:    set.AgeUnder40,
	}, nil
}
