package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wheel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"WHEEL_CONFIG",
	"WHEEL_LOG_LEVEL",
	"WHEEL_LOG_FORMAT",
	"WHEEL_ENTRANTS",
	"WHEEL_WEIGHTS_PATH",
	"WHEEL_STORE",
	"WHEEL_GDATA_APP",
	"WHEEL_SELECTION_MODE",
	"WHEEL_MAX_WEIGHT",
	"WHEEL_SEED",
	"WHEEL_METRICS_TEXTFILE",
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Entrants, convey.ShouldResemble, config.DefaultEntrants)
				convey.So(cfg.WeightsPath, convey.ShouldEqual, "weights.json")
				convey.So(cfg.Store, convey.ShouldEqual, "file")
				convey.So(cfg.MaxWeight, convey.ShouldEqual, config.DefaultMaxWeight)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WHEEL_ENTRANTS", "Ann, Bob,Cid")
			_ = os.Setenv("WHEEL_WEIGHTS_PATH", "/tmp/w.db")
			_ = os.Setenv("WHEEL_STORE", "sqlite")
			_ = os.Setenv("WHEEL_SELECTION_MODE", "full_sum")
			_ = os.Setenv("WHEEL_MAX_WEIGHT", "4096")
			_ = os.Setenv("WHEEL_SEED", "42")
			_ = os.Setenv("WHEEL_LOG_LEVEL", "debug")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Entrants, convey.ShouldResemble, []string{"Ann", "Bob", "Cid"})
				convey.So(cfg.WeightsPath, convey.ShouldEqual, "/tmp/w.db")
				convey.So(cfg.Store, convey.ShouldEqual, "sqlite")
				convey.So(cfg.SelectionMode, convey.ShouldEqual, "full_sum")
				convey.So(cfg.MaxWeight, convey.ShouldEqual, 4096)
				convey.So(cfg.Seed, convey.ShouldEqual, 42)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
entrants:
  - Ann
  - Bob
weights_path: team.yaml
gdata_app: teamwheel
metrics_textfile: /tmp/wheel.prom
`)
			_ = os.Setenv("WHEEL_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Entrants, convey.ShouldResemble, []string{"Ann", "Bob"})
				convey.So(cfg.WeightsPath, convey.ShouldEqual, "team.yaml")
				convey.So(cfg.GdataApp, convey.ShouldEqual, "teamwheel")
				convey.So(cfg.MetricsTextfile, convey.ShouldEqual, "/tmp/wheel.prom")
				convey.So(cfg.SelectionMode, convey.ShouldEqual, "eligible") // From defaults
			})
		})

		convey.Convey("When the roster comes from a comma-separated environment variable", func() {
			_ = os.Setenv("WHEEL_ENTRANTS", "A,B,C")

			cfg, err := config.Load(ctx)

			convey.Convey("Then every name should become its own entrant", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(cfg.Entrants), convey.ShouldEqual, 3)
				convey.So(cfg.Entrants, convey.ShouldResemble, []string{"A", "B", "C"})
			})
		})

		convey.Convey("When the environment roster has a single name", func() {
			_ = os.Setenv("WHEEL_ENTRANTS", "Solo")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should hold just that name", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Entrants, convey.ShouldResemble, []string{"Solo"})
			})
		})

		convey.Convey("When the environment roster replaces a file roster", func() {
			tmpFile := createTempConfigFile(t, `
entrants:
  - Ann
  - Bob
`)
			_ = os.Setenv("WHEEL_CONFIG", tmpFile)
			_ = os.Setenv("WHEEL_ENTRANTS", "Cid,,Dee, ")

			cfg, err := config.Load(ctx)

			convey.Convey("Then only the non-blank environment names should remain", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Entrants, convey.ShouldResemble, []string{"Cid", "Dee"})
			})
		})

		convey.Convey("When the environment roster holds only separators", func() {
			_ = os.Setenv("WHEEL_ENTRANTS", " , ,")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
weights_path: team.json
store: file
`)
			_ = os.Setenv("WHEEL_CONFIG", tmpFile)
			_ = os.Setenv("WHEEL_WEIGHTS_PATH", "override.json")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WeightsPath, convey.ShouldEqual, "override.json")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("WHEEL_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("WHEEL_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty weights path", func() {
			_ = os.Setenv("WHEEL_WEIGHTS_PATH", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "weights_path must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("WHEEL_MAX_WEIGHT", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wheel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}
