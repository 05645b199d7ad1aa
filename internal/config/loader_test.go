package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/marathon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	convey.Convey("Given a context", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with no file or env", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config from environment variables", func() {
			_ = os.Setenv("MARATHON_ADDR", ":8081")
			_ = os.Setenv("MARATHON_MODEL_PATH", "/srv/models/gbr.json.gz")
			_ = os.Setenv("MARATHON_PREDICTION_CACHE_SIZE", "0")
			_ = os.Setenv("MARATHON_MAX_UPLOAD_BYTES", "1048576")
			_ = os.Setenv("MARATHON_TRAINING_WINDOW_DAYS", "42")
			_ = os.Setenv("MARATHON_LOG_LEVEL", "debug")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "/srv/models/gbr.json.gz")
				convey.So(cfg.PredictionCacheSize, convey.ShouldEqual, 0)
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, int64(1048576))
				convey.So(cfg.TrainingWindowDays, convey.ShouldEqual, 42)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			yamlContent := `
# service settings
addr: ":9090"  # inline comment
model_path: "testdata/model.json"
prediction_cache_size: 128
log_file: "/tmp/marathon.log"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MARATHON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "testdata/model.json")
				convey.So(cfg.PredictionCacheSize, convey.ShouldEqual, 128)
				convey.So(cfg.LogFile, convey.ShouldEqual, "/tmp/marathon.log")
				convey.So(cfg.TrainingWindowDays, convey.ShouldEqual, 28)
			})
		})

		convey.Convey("When both file and env set the same key", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MARATHON_CONFIG", tmpFile)
			_ = os.Setenv("MARATHON_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("MARATHON_CONFIG", "/nonexistent/marathon.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is not valid YAML", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MARATHON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric env value is not a number", func() {
			_ = os.Setenv("MARATHON_PREDICTION_CACHE_SIZE", "many")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file empties the address", func() {
			tmpFile := createTempConfigFile("addr: \"\"\nmodel_path: m.json\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MARATHON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When the cache size is negative", func() {
			_ = os.Setenv("MARATHON_PREDICTION_CACHE_SIZE", "-5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MARATHON_CONFIG",
		"MARATHON_ADDR",
		"MARATHON_LOG_LEVEL",
		"MARATHON_LOG_FILE",
		"MARATHON_MODEL_PATH",
		"MARATHON_PREDICTION_CACHE_SIZE",
		"MARATHON_MAX_UPLOAD_BYTES",
		"MARATHON_TRAINING_WINDOW_DAYS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "marathon-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
