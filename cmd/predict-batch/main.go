package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/marathon/internal/batch"
	"github.com/okian/marathon/pkg/logger"
)

// Default configuration constants.
const (
	defaultModelPath     = "models/marathon_time_predictor.json"
	defaultOutput        = "predictions.csv"
	defaultQueueCapacity = 1024
	defaultCacheSize     = 4096
	defaultTimeout       = 10 * time.Minute
)

func main() {
	var (
		input     = flag.String("in", "", "Input CSV file")
		output    = flag.String("out", defaultOutput, "Output file")
		format    = flag.String("format", "", "csv or parquet (default: from the output extension)")
		model     = flag.String("model", defaultModelPath, "Model artifact")
		workers   = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		capacity  = flag.Int("queue", defaultQueueCapacity, "Job queue capacity")
		cacheSize = flag.Int("cache", defaultCacheSize, "Prediction cache size (0 disables)")
		timeout   = flag.Duration("timeout", defaultTimeout, "Overall deadline")
		logFile   = flag.String("log", "", "Also write logs to this file (rotated)")
		verbose   = flag.Bool("verbose", false, "Enable debug logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *input == "" {
		batch.ShowHelp()
		if *input == "" && !*help {
			os.Exit(2)
		}
		return
	}

	if err := batch.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cfg := &batch.Config{
		InputFile:     *input,
		OutputFile:    *output,
		Format:        *format,
		ModelPath:     *model,
		Workers:       *workers,
		QueueCapacity: *capacity,
		CacheSize:     *cacheSize,
		Timeout:       *timeout,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if _, err := batch.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "batch failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
