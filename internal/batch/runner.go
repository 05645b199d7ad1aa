package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/marathon/internal/adapters/cache"
	"github.com/okian/marathon/internal/adapters/mq/queue"
	"github.com/okian/marathon/internal/adapters/mq/worker"
	"github.com/okian/marathon/internal/adapters/regressor"
	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// Run executes a complete batch: load the model, read and score the input,
// write the output and log the final statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("batch")
	format := cfg.OutputFormat()

	log.Info(ctx, "starting batch scoring",
		logger.String("input", cfg.InputFile),
		logger.String("output", cfg.OutputFile),
		logger.String("format", format),
		logger.String("model", cfg.ModelPath),
		logger.Int("workers", cfg.Workers),
	)
	if format != FormatCSV && format != FormatParquet {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	// Step 1: Load the model once
	m, err := regressor.NewLoader(cfg.ModelPath, regressor.WithLogger(log)).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("model load failed: %w", err)
	}

	p, err := cache.Wrap(m, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("prediction cache: %w", err)
	}

	// Step 2: Read rows
	in, err := os.Open(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	rows, err := ReadCSV(in)
	_ = in.Close()
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	// Step 3: Score concurrently
	outcomes, err := Score(ctx, rows, p, cfg.Workers, cfg.QueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	// Step 4: Write output in input order
	if err := writeOutput(cfg.OutputFile, format, outcomes); err != nil {
		return nil, err
	}

	// Final statistics
	tally(stats, outcomes)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	for i := range outcomes {
		if !outcomes[i].OK() {
			log.Warn(ctx, "row rejected", logger.Int("line", outcomes[i].Line), logger.Error(outcomes[i].Err))
		}
	}
	displayFinalStats(ctx, log, stats)

	return stats, nil
}

// Score pushes the parsable rows through a bounded queue to a worker pool and
// returns one outcome per input row, in input order.
func Score(ctx context.Context, rows []Row, p inference.Predictor, workers, capacity int) ([]Outcome, error) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(capacity))
	sink := newCollector(rows)
	pool := worker.NewPool(workers, q, p, sink)
	pool.Start(ctx)

	for i := range rows {
		if rows[i].Err != nil {
			continue
		}
		job := queue.Job{Index: rows[i].Index, Line: rows[i].Line, Input: rows[i].Input}
		if err := q.Put(ctx, job); err != nil {
			_ = q.Close()
			return nil, err
		}
	}
	if err := pool.Shutdown(ctx); err != nil {
		return nil, err
	}
	return sink.results(), nil
}

func tally(stats *Stats, outcomes []Outcome) {
	var total float64
	stats.RowsRead = len(outcomes)
	for i := range outcomes {
		if outcomes[i].OK() {
			stats.RowsScored++
			total += outcomes[i].Hours
		} else {
			stats.RowsInvalid++
		}
	}
	if stats.RowsScored > 0 {
		stats.MeanHours = total / float64(stats.RowsScored)
	}
}

func writeOutput(path, format string, outcomes []Outcome) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, outcomes); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), filePermission); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var rowsPerSecond float64
	if stats.Duration > 0 {
		rowsPerSecond = float64(stats.RowsRead) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("rowsRead", stats.RowsRead),
		logger.Int("rowsScored", stats.RowsScored),
		logger.Int("rowsInvalid", stats.RowsInvalid),
		logger.Float64("meanHours", stats.MeanHours),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("rowsPerSecond", rowsPerSecond),
	)
}
