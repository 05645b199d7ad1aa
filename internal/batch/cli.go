package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/marathon/pkg/logger"
)

// SetupLogging configures logging to the console and, when logFile is set, to a
// rotated file.
func SetupLogging(logFile string, verbose bool) error {
	if err := logger.Init(logger.WithFile(logFile)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return err
		}
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return nil
}

// ShowHelp prints usage information for the batch scorer.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Marathon Batch Scorer
=====================

Scores a CSV of runners with the marathon time model.

Usage:
  predict-batch -in runners.csv -out predictions.parquet [options]

Input columns (header required, any order):
  name,km4week,sp4week,cross_training,wall21,sex,age_under_40

Options:
  -in string
        Input CSV file
  -out string
        Output file (default "predictions.csv")
  -format string
        csv or parquet (default: from the output extension)
  -model string
        Model artifact (default "models/marathon_time_predictor.json")
  -workers int
        Number of concurrent workers (default CPU cores)
  -queue int
        Job queue capacity (default 1024)
  -cache int
        Memoize predictions for repeated rows, 0 disables (default 4096)
  -timeout duration
        Overall deadline (default 10m)
  -log string
        Also write logs to this file (rotated)
  -verbose
        Enable debug logging
  -help
        Show this help message

Rows with unknown labels or out-of-range values are kept in the output with
an error message instead of a prediction.
`)
}
