// Package batch scores a CSV of runners offline with the same model and
// pipeline the web form uses.
package batch

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/marathon/internal/domain/model"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Config holds configuration for a batch run.
type Config struct {
	InputFile     string        // CSV of runners
	OutputFile    string        // scored rows; format follows Format
	Format        string        // csv or parquet; empty picks from the output extension
	ModelPath     string        // model artifact
	Workers       int           // concurrent scorers
	QueueCapacity int           // bounded job queue size
	CacheSize     int           // memoized predictions, 0 disables
	Timeout       time.Duration // overall deadline
	LogFile       string        // optional rotated log file
	Verbose       bool          // debug logging
}

// OutputFormat resolves the effective output format.
func (c *Config) OutputFormat() string {
	if c.Format != "" {
		return strings.ToLower(c.Format)
	}
	if strings.EqualFold(filepath.Ext(c.OutputFile), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Stats holds run statistics.
type Stats struct {
	RowsRead    int
	RowsScored  int
	RowsInvalid int
	MeanHours   float64
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// Fields is one input row as written in the file, echoed back in the output.
type Fields struct {
	Name          string
	KmPerWeek     string
	SpeedPerWeek  string
	CrossTraining string
	Wall21        string
	Sex           string
	AgeUnder40    string
}

// Row is a parsed input row. Err is set when the row could not be parsed;
// such rows are reported but never scored.
type Row struct {
	Index  int
	Line   int
	Fields Fields
	Input  model.RawInput
	Err    error
}

// Outcome is the scored (or rejected) row.
type Outcome struct {
	Row
	Features model.FeatureVector
	Hours    float64
}

// OK reports whether the row was scored.
func (o *Outcome) OK() bool { return o.Err == nil }
